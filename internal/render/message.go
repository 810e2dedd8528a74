package render

import (
	"html/template"
	"strings"

	"github.com/metalcon/newswidget/internal/domain"
)

const lineBreak = "<br />"

var (
	videoBlockTmpl = template.Must(template.New("video_block").Parse(
		`<div class="link_box">{{.Video}}</div>`))

	pictureBlockTmpl = template.Must(template.New("picture_block").Parse(
		`<div class="link_box">` +
			`<div class="link_picture"><img src="{{.Image}}" class="img-rounded"></div>` +
			`<div class="link_text_wrapper">` +
			`<div class="link_title"><a href="{{.URL}}">{{.Title}}</a></div>` +
			`<div class="link_description">{{.Description}}</div>` +
			`</div>` +
			`</div>`))

	textBlockTmpl = template.Must(template.New("text_block").Parse(
		`<div class="link_box">` +
			`<div class="link_text_wrapper">` +
			`<div class="link_title"><a href="{{.URL}}">{{.Title}}</a></div>` +
			`<div class="link_description">{{.Description}}</div>` +
			`</div>` +
			`</div>`))
)

type linkBlockData struct {
	Title       string
	Description string
	URL         string
	Image       string

	// Video is embedded verbatim.
	Video template.HTML
}

// LinkBlock renders the block attached to a message for a link preview.
// The second result is false when the preview has no description, in which
// case no block is attached. A video fragment takes precedence over the
// active image; without either, only title and description are shown.
func LinkBlock(p *domain.LinkPreview) (template.HTML, bool, error) {
	if !p.HasDescription() {
		return "", false, nil
	}

	data := linkBlockData{
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		URL:         strings.TrimSpace(p.URL),
		Image:       strings.TrimSpace(p.Image),
		Video:       template.HTML(strings.TrimSpace(p.Video)),
	}

	t := textBlockTmpl
	switch {
	case p.HasVideo():
		t = videoBlockTmpl
	case p.HasImage():
		t = pictureBlockTmpl
	}

	block, err := execute(t, data)
	if err != nil {
		return "", false, err
	}
	return block, true, nil
}

// Message builds the message sent to the remote service: the text as typed,
// followed by the link block when the preview has one, with every newline
// turned into a line break.
func Message(text string, p *domain.LinkPreview) (string, error) {
	return withLinkBlock(text, p)
}

// Body builds the markup shown in a list item for text and preview. It is
// Message with the text escaped.
func Body(text string, p *domain.LinkPreview) (template.HTML, error) {
	body, err := withLinkBlock(template.HTMLEscapeString(text), p)
	if err != nil {
		return "", err
	}
	return template.HTML(body), nil
}

func withLinkBlock(text string, p *domain.LinkPreview) (string, error) {
	var b strings.Builder
	b.WriteString(text)

	block, ok, err := LinkBlock(p)
	if err != nil {
		return "", err
	}
	if ok {
		b.WriteString(string(block))
	}

	msg := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.ReplaceAll(msg, "\n", lineBreak), nil
}
