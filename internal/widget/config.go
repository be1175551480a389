// Package widget mounts the Telegram login widget into page containers and
// routes the widget's callback back to the mount that created it.
package widget

import (
	"errors"
	"fmt"
	"strings"
)

// ScriptSrc is the hosted widget script.
const ScriptSrc = "https://telegram.org/js/telegram-widget.js?22"

// PlaceholderBotName is the bot name shipped in sample configs. A widget
// still carrying it is treated as unconfigured.
const PlaceholderBotName = "YOUR_BOT_NAME"

// ErrInvalidConfig is returned for configs the widget would not accept.
var ErrInvalidConfig = errors.New("invalid widget config")

// Size is the widget button size class.
type Size string

const (
	SizeLarge  Size = "large"
	SizeMedium Size = "medium"
	SizeSmall  Size = "small"
)

// Config is the widget configuration for one mount. It is never changed in
// place: a different config means a new mount.
type Config struct {
	BotName       string
	Size          Size
	CornerRadius  int
	RequestAccess bool
	UserPic       bool
	// AuthURL switches the widget to redirect mode: on success Telegram
	// navigates the browser there instead of calling back into the page.
	AuthURL string
}

// Validate checks the size class and radius.
func (c Config) Validate() error {
	switch c.size() {
	case SizeLarge, SizeMedium, SizeSmall:
	default:
		return fmt.Errorf("%w: unknown size %q", ErrInvalidConfig, c.Size)
	}
	if c.CornerRadius < 0 {
		return fmt.Errorf("%w: negative corner radius %d", ErrInvalidConfig, c.CornerRadius)
	}
	return nil
}

// Configured reports whether a real bot name is set.
func (c Config) Configured() bool {
	name := strings.TrimSpace(c.BotName)
	return name != "" && name != PlaceholderBotName
}

// RedirectMode reports whether the widget redirects instead of calling back.
func (c Config) RedirectMode() bool {
	return c.AuthURL != ""
}

func (c Config) size() Size {
	if c.Size == "" {
		return SizeLarge
	}
	return c.Size
}
