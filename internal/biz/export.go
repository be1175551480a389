package biz

import (
	"encoding/json"
	"time"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// ExportFilename is the download name of the data export.
const ExportFilename = "portal-data-export.json"

// Article is one entry of the portal's content listing.
type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Date     string `json:"date"`
	Category string `json:"category"`
	ReadTime string `json:"readTime"`
}

// Articles is the fixed content listing.
var Articles = []Article{
	{
		ID:       1,
		Title:    "Новые возможности платформы",
		Excerpt:  "Обзор последних обновлений и функций, которые помогут вам работать эффективнее.",
		Date:     "2 декабря 2024",
		Category: "Обновления",
		ReadTime: "5 мин",
	},
	{
		ID:       2,
		Title:    "Руководство по безопасности",
		Excerpt:  "Лучшие практики для защиты вашего аккаунта и данных на платформе.",
		Date:     "28 ноября 2024",
		Category: "Безопасность",
		ReadTime: "8 мин",
	},
	{
		ID:       3,
		Title:    "Интеграция с внешними сервисами",
		Excerpt:  "Как подключить сторонние инструменты для расширения функциональности.",
		Date:     "25 ноября 2024",
		Category: "Интеграции",
		ReadTime: "6 мин",
	},
	{
		ID:       4,
		Title:    "Оптимизация рабочего процесса",
		Excerpt:  "Советы и трюки для повышения продуктивности при работе с порталом.",
		Date:     "20 ноября 2024",
		Category: "Советы",
		ReadTime: "4 мин",
	},
}

// ExportDocument is the user-downloadable data export. It carries no
// schema version.
type ExportDocument struct {
	Name     string      `json:"name"`
	Username string      `json:"username"`
	JoinDate string      `json:"joinDate"`
	Articles []Article   `json:"articles"`
	Settings Preferences `json:"settings"`
}

// BuildExport assembles the export for a signed-in browser.
func BuildExport(rec *auth.SessionRecord, prefs Preferences) ExportDocument {
	joined := rec.CreatedAt
	if rec.Profile.AuthDate > 0 {
		joined = time.Unix(rec.Profile.AuthDate, 0).UTC()
	}

	doc := ExportDocument{
		Name:     rec.Profile.DisplayName(),
		Username: rec.Profile.Handle(),
		Articles: Articles,
		Settings: prefs,
	}
	if !joined.IsZero() {
		doc.JoinDate = joined.Format("2006-01-02")
	}
	return doc
}

// MarshalExport renders the export as indented JSON.
func MarshalExport(doc ExportDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
