package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalcon/newswidget/internal/domain"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestComposerFragment(t *testing.T) {
	doc := parse(t, string(Composer()))

	field := doc.Find("textarea#message")
	require.Equal(t, 1, field.Length())
	placeholder, _ := field.Attr("placeholder")
	assert.Equal(t, "Enter your Message", placeholder)
	assert.Equal(t, 1, doc.Find(`label[for="message"]`).Length())

	for _, sel := range []string{
		".message-submit", ".button-clear-link", ".button-clear", ".button-cancel",
		".liveurl .close", ".liveurl .image", ".liveurl .video",
		".liveurl .title", ".liveurl .description", ".liveurl .url",
		".liveurl .prev", ".liveurl .next", ".liveurl .count .current", ".liveurl .count .max",
	} {
		assert.Equal(t, 1, doc.Find(sel).Length(), sel)
	}

	_, hidden := doc.Find(".liveurl").Attr("hidden")
	assert.True(t, hidden)
}

func TestInjectPrependsToContainer(t *testing.T) {
	doc := parse(t, `<div class="wrapper"><p class="existing">hi</p></div>`)

	require.NoError(t, Inject(doc, ""))

	children := doc.Find(".wrapper").Children()
	assert.True(t, children.First().HasClass("message-input"))
	assert.True(t, children.Last().HasClass("existing"))
	assert.Equal(t, 1, doc.Find(".wrapper textarea#message").Length())
}

func TestInjectMissingContainer(t *testing.T) {
	doc := parse(t, `<div class="other"></div>`)

	err := Inject(doc, ".wrapper")
	assert.True(t, errors.Is(err, ErrContainerNotFound))
	assert.Equal(t, 0, doc.Find("textarea").Length())
}

func TestPageInjectsComposer(t *testing.T) {
	page, err := Page(PageOptions{Title: "Metal News", SubmitPath: "/status-updates", StreamPath: "/stream"})
	require.NoError(t, err)

	doc := parse(t, page)
	assert.Equal(t, "Metal News", doc.Find("title").Text())
	assert.True(t, doc.Find(".wrapper").Children().First().HasClass("message-input"))

	list := doc.Find("ul.comments-holder")
	submit, _ := list.Attr("data-submit")
	stream, _ := list.Attr("data-stream")
	assert.Equal(t, "/status-updates", submit)
	assert.Equal(t, "/stream", stream)
	assert.Contains(t, page, "textboxBehavior")

	// The submitting page renders the entry from its own response and
	// follows the stream under its session.
	script := doc.Find("script").Text()
	assert.Contains(t, script, "res.text().then(prepend)")
	assert.Contains(t, script, `fd.append("session", session)`)
	assert.Contains(t, script, `"?session=" + encodeURIComponent(session)`)
	assert.Contains(t, script, "ws.onclose")
}

func TestMessageWithoutPreview(t *testing.T) {
	msg, err := Message("first line\nsecond line\r\nthird", nil)
	require.NoError(t, err)
	assert.Equal(t, "first line<br />second line<br />third", msg)
}

func TestMessageKeepsTextAsTyped(t *testing.T) {
	msg, err := Message("It's \"fine\" & <3\nbye", nil)
	require.NoError(t, err)
	assert.Equal(t, "It's \"fine\" & <3<br />bye", msg)
}

func TestBodyEscapesText(t *testing.T) {
	body, err := Body("<b>hi</b> & \"you\"\nbye", nil)
	require.NoError(t, err)
	assert.Equal(t, `&lt;b&gt;hi&lt;/b&gt; &amp; &#34;you&#34;<br />bye`, string(body))
}

func TestBodyKeepsLinkBlock(t *testing.T) {
	preview := &domain.LinkPreview{Title: "Metal", Description: "Loud", URL: "http://example.com/a"}

	body, err := Body("a & b", preview)
	require.NoError(t, err)
	msg, err := Message("a & b", preview)
	require.NoError(t, err)

	assert.Equal(t, strings.Replace(msg, "a & b", "a &amp; b", 1), string(body))
	assert.Contains(t, string(body), `<div class="link_box">`)
}

func TestMessageWithImagePreview(t *testing.T) {
	preview := &domain.LinkPreview{
		Title:       "Metal",
		Description: "Loud",
		URL:         "http://example.com/a",
		Image:       "http://example.com/a.png",
	}

	msg, err := Message("Look at this", preview)
	require.NoError(t, err)
	assert.Equal(t, `Look at this<div class="link_box">`+
		`<div class="link_picture"><img src="http://example.com/a.png" class="img-rounded"></div>`+
		`<div class="link_text_wrapper">`+
		`<div class="link_title"><a href="http://example.com/a">Metal</a></div>`+
		`<div class="link_description">Loud</div>`+
		`</div></div>`, msg)
}

func TestMessageWithVideoPreview(t *testing.T) {
	preview := &domain.LinkPreview{
		Title:       "Metal",
		Description: "Loud",
		URL:         "http://example.com/a",
		Image:       "http://example.com/a.png",
		Video:       `<iframe src="http://example.com/v/1"></iframe>`,
	}

	msg, err := Message("Watch", preview)
	require.NoError(t, err)
	assert.Equal(t, `Watch<div class="link_box"><iframe src="http://example.com/v/1"></iframe></div>`, msg)
	assert.NotContains(t, msg, "a.png")
	assert.NotContains(t, msg, "undefined")
}

func TestMessageWithTextOnlyPreview(t *testing.T) {
	preview := &domain.LinkPreview{Title: "Metal", Description: "Loud", URL: "http://example.com/a"}

	msg, err := Message("Read", preview)
	require.NoError(t, err)
	assert.Equal(t, `Read<div class="link_box"><div class="link_text_wrapper">`+
		`<div class="link_title"><a href="http://example.com/a">Metal</a></div>`+
		`<div class="link_description">Loud</div>`+
		`</div></div>`, msg)
}

func TestLinkBlockNeedsDescription(t *testing.T) {
	block, ok, err := LinkBlock(&domain.LinkPreview{Title: "t", URL: "http://example.com", Image: "http://example.com/i.png"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, block)
}

func TestLinkBlockEscapesPreviewText(t *testing.T) {
	block, ok, err := LinkBlock(&domain.LinkPreview{Title: "<i>t</i>", Description: "a < b", URL: "javascript:alert(1)"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(block), "&lt;i&gt;t&lt;/i&gt;")
	assert.Contains(t, string(block), "a &lt; b")
	assert.NotContains(t, string(block), "javascript:")
}

func TestEntryMarkup(t *testing.T) {
	fragment, err := Entry(domain.Entry{
		ID:        "AB123",
		Date:      "09.03.2024 14:05",
		ActorID:   "7",
		ActorName: "Ozzy",
		Body:      "hello<br />world",
		AvatarURL: "http://example.com/me.png",
	})
	require.NoError(t, err)

	doc := parse(t, "<ul>"+string(fragment)+"</ul>")
	item := doc.Find("li.single-comment-holder")
	require.Equal(t, 1, item.Length())

	id, _ := item.Attr("id")
	assert.Equal(t, "0", id, "list item id is fixed")

	avatarLink, _ := item.Find(".user-img a").Attr("href")
	avatar, _ := item.Find(".user-img img.user-img-pic").Attr("src")
	assert.Equal(t, "AB123", avatarLink)
	assert.Equal(t, "http://example.com/me.png", avatar)
	assert.Equal(t, "Ozzy", item.Find("h3.username-field").Text())
	assert.Equal(t, 1, item.Find(".comment-text br").Length())
	assert.NotContains(t, string(fragment), ">7<")
}

func TestEntryEscapesActorName(t *testing.T) {
	fragment, err := Entry(domain.Entry{ID: "AB1", ActorName: "<script>x</script>", Body: "m"})
	require.NoError(t, err)
	assert.NotContains(t, string(fragment), "<script>")
	assert.Contains(t, string(fragment), domain.DefaultAvatarURL)
}

func TestSummarize(t *testing.T) {
	fragment, err := Entry(domain.Entry{ID: "AB9", Date: "today", ActorName: "Lemmy", Body: "ace<br />of spades"})
	require.NoError(t, err)

	sum, err := Summarize(string(fragment))
	require.NoError(t, err)
	assert.Equal(t, EntrySummary{Link: "AB9", Actor: "Lemmy", Date: "today", Text: "aceof spades"}, sum)

	_, err = Summarize("<p>nothing</p>")
	assert.Error(t, err)
}

func TestExtractPreview(t *testing.T) {
	panel := `<div class="close"></div><div class="inner">` +
		`<div class="image"><img src="http://example.com/1.png"><img class="active" src="http://example.com/2.png"></div>` +
		`<div class="details"><div class="info">` +
		`<div class="title"> Metal </div><div class="description">Loud music</div><div class="url">http://example.com/a</div>` +
		`</div></div><div class="video"></div></div>`

	p, err := ExtractPreview(panel)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.LinkPreview{
		Title:       "Metal",
		Description: "Loud music",
		URL:         "http://example.com/a",
		Image:       "http://example.com/2.png",
	}, *p)
}

func TestExtractPreviewVideo(t *testing.T) {
	panel := `<div class="description">d</div><div class="video"><iframe src="http://example.com/v"></iframe></div>`

	p, err := ExtractPreview(panel)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, `<iframe src="http://example.com/v"></iframe>`, p.Video)
}

func TestExtractPreviewEmptyPanel(t *testing.T) {
	p, err := ExtractPreview(string(Composer()))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestExtractPreviewFlattensInlineMarkup(t *testing.T) {
	panel := `<div class="title">Metal <b>News</b></div>` +
		`<div class="description">Loud <script>alert(1)</script>music</div>` +
		`<div class="url">http://example.com/a</div>`

	p, err := ExtractPreview(panel)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Metal News", p.Title)
	assert.Equal(t, "Loud alert(1)music", p.Description)

	block, ok, err := LinkBlock(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(block), "<b>")
	assert.NotContains(t, string(block), "<script>")
}
