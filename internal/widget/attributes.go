package widget

import (
	"fmt"
	"strconv"
)

// Attribute names understood by the hosted widget script.
const (
	AttrBotName       = "data-telegram-login"
	AttrSize          = "data-size"
	AttrRadius        = "data-radius"
	AttrRequestAccess = "data-request-access"
	AttrUserPic       = "data-userpic"
	AttrAuthURL       = "data-auth-url"
	AttrOnAuth        = "data-onauth"
)

// requestAccessWrite asks Telegram for permission to message the user.
const requestAccessWrite = "write"

// Attr is one declarative attribute of the widget script tag.
type Attr struct {
	Name  string
	Value string
}

// DispatchExpr is the data-onauth expression for a mount. The page defines
// TelegramLoginWidget.dispatch; "user" is the variable the widget binds.
func DispatchExpr(key string) string {
	return fmt.Sprintf("TelegramLoginWidget.dispatch(%s, user)", strconv.Quote(key))
}

// Attributes returns the script attributes for cfg in a stable order.
// Exactly one of data-auth-url and data-onauth is present.
// data-request-access is "write" or empty; data-userpic is "true" or "false".
func Attributes(cfg Config, onAuth string) []Attr {
	requestAccess := ""
	if cfg.RequestAccess {
		requestAccess = requestAccessWrite
	}

	attrs := []Attr{
		{Name: AttrBotName, Value: cfg.BotName},
		{Name: AttrSize, Value: string(cfg.size())},
		{Name: AttrRadius, Value: strconv.Itoa(cfg.CornerRadius)},
		{Name: AttrRequestAccess, Value: requestAccess},
		{Name: AttrUserPic, Value: strconv.FormatBool(cfg.UserPic)},
	}

	if cfg.RedirectMode() {
		attrs = append(attrs, Attr{Name: AttrAuthURL, Value: cfg.AuthURL})
	} else {
		attrs = append(attrs, Attr{Name: AttrOnAuth, Value: onAuth})
	}
	return attrs
}
