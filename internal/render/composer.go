package render

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultContainer is the selector of the element the composer is
// prepended to.
const DefaultContainer = ".wrapper"

// ErrContainerNotFound is returned by Inject when no element matches the
// container selector.
var ErrContainerNotFound = errors.New("composer container not found")

var composerTmpl = template.Must(template.New("composer").Parse(
	`<div class="form-group message-input">` +
		`<label for="message">Message:</label>` +
		`<textarea id="message" class="form-control message-input" rows="2" name="message" placeholder="Enter your Message"></textarea>` +
		`<div class="textbox_buttons-holder">` +
		`<input class="btn btn-primary btn-sm message-submit" type="submit" value="create status update" />` +
		`<button class="btn btn-default btn-sm button-clear-link"> Clear Link</button>` +
		`<button class="btn btn-default btn-sm button-clear"> Clear Text</button>` +
		`<button class="btn btn-default btn-sm button-cancel"> Cancel </button>` +
		`</div>` +
		`</div>` +
		`<div class="liveurl" hidden>` +
		`<div class="close" title="Entfernen"></div>` +
		`<div class="inner">` +
		`<div class="image"> </div>` +
		`<div class="details">` +
		`<div class="info"><div class="title"> </div><div class="description"></div><div class="url"> </div></div>` +
		`<div class="thumbnail"><div class="pictures"><div class="controls">` +
		`<div class="prev button inactive"></div>` +
		`<div class="next button inactive"></div>` +
		`<div class="count"><span class="current">0</span><span> von </span><span class="max">0</span></div>` +
		`</div></div></div>` +
		`<div class="video"></div>` +
		`</div>` +
		`</div>` +
		`</div>`))

var composerHTML = template.HTML(mustExecute(composerTmpl))

func mustExecute(t *template.Template) string {
	out, err := execute(t, nil)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// Composer returns the composer fragment: the message field with its
// controls and the hidden link preview panel.
func Composer() template.HTML {
	return composerHTML
}

// Inject prepends the composer as the first child of every element matching
// selector. An empty selector means DefaultContainer.
func Inject(doc *goquery.Document, selector string) error {
	if selector == "" {
		selector = DefaultContainer
	}
	containers := doc.Find(selector)
	if containers.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, selector)
	}
	containers.PrependHtml(string(composerHTML))
	return nil
}

// PageOptions configures the host page.
type PageOptions struct {
	Title string

	// SubmitPath receives the composer's multipart submissions.
	SubmitPath string

	// StreamPath is the websocket endpoint streaming new entries.
	StreamPath string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="de">
<head>
<meta charset="utf-8" />
<title>{{.Title}}</title>
<style>
.comments-holder li.reveal{animation:slide-down .6s ease-out}
@keyframes slide-down{from{max-height:0;opacity:0}to{max-height:40em;opacity:1}}
</style>
</head>
<body>
<div class="wrapper"></div>
<ul class="comments-holder" data-submit="{{.SubmitPath}}" data-stream="{{.StreamPath}}"></ul>
<script>
(function () {
  var list = document.querySelector(".comments-holder");
  var session = window.crypto && crypto.randomUUID
    ? crypto.randomUUID()
    : String(Date.now()) + Math.random().toString(16).slice(2);

  function prepend(html) {
    var holder = document.createElement("ul");
    holder.innerHTML = html;
    var item = holder.firstElementChild;
    if (!item) return;
    item.classList.add("reveal");
    list.insertBefore(item, list.firstChild);
  }

  document.addEventListener("click", function (ev) {
    var button = ev.target.closest(".message-submit");
    if (!button) return;
    ev.preventDefault();
    var text = document.getElementById("message");
    if (!text.value.trim()) return;
    var fd = new FormData();
    fd.append("message", text.value);
    var panel = document.querySelector(".liveurl");
    if (panel) fd.append("liveurl", panel.innerHTML);
    fd.append("session", session);
    button.disabled = true;
    fetch(list.dataset.submit, { method: "POST", body: fd, cache: "no-store" })
      .then(function (res) {
        if (res.status === 200) return res.text().then(prepend);
      })
      .finally(function () { button.disabled = false; });
  });

  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  function follow() {
    var ws = new WebSocket(scheme + location.host + list.dataset.stream +
      "?session=" + encodeURIComponent(session));
    ws.onmessage = function (msg) {
      var ev = JSON.parse(msg.data);
      if (ev.kind === "entry") prepend(ev.html);
    };
    ws.onclose = function () { setTimeout(follow, 5000); };
  }
  follow();

  if (typeof window.textboxBehavior === "function") window.textboxBehavior();
})();
</script>
</body>
</html>
`))

// Page renders the host page and injects the composer into its wrapper.
func Page(opts PageOptions) (string, error) {
	if opts.Title == "" {
		opts.Title = "News"
	}
	shell, err := execute(pageTmpl, opts)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(shell)))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	if err := Inject(doc, DefaultContainer); err != nil {
		return "", err
	}

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", fmt.Errorf("serialize page: %w", err)
	}
	return out, nil
}
