package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/metalcon/newswidget/internal/domain"
)

// The list item id is always 0, whatever the entry id is. Pages that select
// entries by element id therefore only ever see the newest one.
var entryTmpl = template.Must(template.New("entry").Parse(
	`<li id="0" class="single-comment-holder">` +
		`<div class="user-img"><a href="{{.ID}}"><img src="{{.AvatarURL}}" class="user-img-pic"></a></div>` +
		`<div class="comment-body">` +
		`<h3 class="username-field">{{.ActorName}}</h3>` +
		`<div class="comment-date"><a href="{{.ID}}">{{.Date}}</a></div>` +
		`<div class="comment-text">{{.Body}}</div>` +
		`</div>` +
		`</li>`))

type entryData struct {
	ID        string
	Date      string
	ActorName string
	AvatarURL string
	Body      template.HTML
}

// Entry renders the list item of an entry. The body is markup built by
// Body and is embedded as is; every other field is escaped.
func Entry(e domain.Entry) (template.HTML, error) {
	avatar := e.AvatarURL
	if avatar == "" {
		avatar = domain.DefaultAvatarURL
	}
	return execute(entryTmpl, entryData{
		ID:        e.ID,
		Date:      e.Date,
		ActorName: e.ActorName,
		AvatarURL: avatar,
		Body:      e.Body,
	})
}

// EntrySummary is the readable content of a rendered list item.
type EntrySummary struct {
	Link  string
	Actor string
	Date  string
	Text  string
}

// Summarize reads back the parts of a rendered list item.
func Summarize(fragment string) (EntrySummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return EntrySummary{}, fmt.Errorf("parse entry: %w", err)
	}
	item := doc.Find("li.single-comment-holder").First()
	if item.Length() == 0 {
		return EntrySummary{}, fmt.Errorf("parse entry: no list item")
	}

	link, _ := item.Find(".comment-date a").First().Attr("href")
	return EntrySummary{
		Link:  link,
		Actor: strings.TrimSpace(item.Find(".username-field").First().Text()),
		Date:  strings.TrimSpace(item.Find(".comment-date").First().Text()),
		Text:  strings.TrimSpace(item.Find(".comment-text").First().Text()),
	}, nil
}
