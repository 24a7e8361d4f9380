package content

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ViewerData is what the viewer page needs. FileURL is a signed link to the
// file endpoint, never the stored locator.
type ViewerData struct {
	Title     string
	Kind      Kind
	FileURL   string
	Remaining string
	Watermark string
}

// deterrenceScript adds friction against casual copying: it blocks the
// context menu and common save/print/copy/devtools shortcuts and blurs the
// page when it loses focus. It is a best-effort deterrent only and does not
// stop a determined user from extracting the content.
const deterrenceScript = `<script>
(function () {
  var root = document.documentElement;
  document.addEventListener('contextmenu', function (e) { e.preventDefault(); });
  document.addEventListener('keydown', function (e) {
    var k = (e.key || '').toLowerCase();
    var mod = e.ctrlKey || e.metaKey;
    if (k === 'f12' || k === 'printscreen' ||
        (mod && ['s', 'p', 'c', 'a', 'u'].indexOf(k) !== -1) ||
        (mod && e.shiftKey && ['i', 'j', 'c'].indexOf(k) !== -1)) {
      e.preventDefault();
      e.stopPropagation();
    }
  }, true);
  function blur(on) { root.classList.toggle('vault-blurred', on); }
  document.addEventListener('visibilitychange', function () { blur(document.hidden); });
  window.addEventListener('blur', function () { blur(true); });
  window.addEventListener('focus', function () { blur(false); });
})();
</script>`

const pageStyle = `<style>
html, body { margin: 0; height: 100%; background: #111; color: #eee; font-family: system-ui, sans-serif; }
body { user-select: none; -webkit-user-select: none; }
header { padding: .75rem 1rem; display: flex; justify-content: space-between; align-items: center; background: #1c1c1c; }
main { position: relative; height: calc(100% - 3.25rem); display: flex; align-items: center; justify-content: center; }
iframe, video { width: 100%; height: 100%; border: 0; }
img { max-width: 100%; max-height: 100%; pointer-events: none; }
.watermark { position: absolute; inset: 0; pointer-events: none; display: flex; align-items: center; justify-content: center; font-size: 2rem; opacity: .08; transform: rotate(-25deg); }
.vault-blurred main { filter: blur(18px); }
.notice { max-width: 32rem; text-align: center; padding: 2rem; }
a.button { display: inline-block; margin-top: 1rem; padding: .6rem 1.2rem; background: #3b82f6; color: #fff; text-decoration: none; border-radius: .4rem; }
@media print { body { display: none; } }
</style>`

func writePage(w io.Writer, title, body string, withScript bool) error {
	script := ""
	if withScript {
		script = deterrenceScript
	}
	_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><meta name="robots" content="noindex"><title>%s</title>%s</head><body>%s%s</body></html>`,
		templ.EscapeString(title), pageStyle, body, script)
	return err
}

// Viewer renders the protected viewer for one item.
func Viewer(d ViewerData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		src := templ.EscapeString(string(templ.URL(d.FileURL)))
		var media string
		switch d.Kind {
		case KindDocument:
			media = fmt.Sprintf(`<iframe src="%s#toolbar=0&amp;navpanes=0" title="%s"></iframe>`, src, templ.EscapeString(d.Title))
		case KindVideo:
			media = fmt.Sprintf(`<video src="%s" controls controlslist="nodownload noremoteplayback" disablepictureinpicture></video>`, src)
		case KindAudio:
			media = fmt.Sprintf(`<audio src="%s" controls controlslist="nodownload"></audio>`, src)
		case KindImage:
			media = fmt.Sprintf(`<img src="%s" alt="%s" draggable="false">`, src, templ.EscapeString(d.Title))
		default:
			media = fmt.Sprintf(`<div class="notice"><p>This material opens in a new tab.</p><a class="button" href="%s" target="_blank" rel="noopener noreferrer">Open %s</a></div>`,
				src, templ.EscapeString(d.Title))
		}
		watermark := ""
		if d.Watermark != "" {
			watermark = fmt.Sprintf(`<div class="watermark">%s</div>`, templ.EscapeString(d.Watermark))
		}
		body := fmt.Sprintf(`<header><strong>%s</strong><span>%s</span></header><main data-kind="%s">%s%s</main>`,
			templ.EscapeString(d.Title), templ.EscapeString(d.Remaining), templ.EscapeString(string(d.Kind)), media, watermark)
		return writePage(w, d.Title, body, true)
	})
}

// AccessDenied renders the page shown when the guard refuses access.
func AccessDenied(title, message, purchaseURL string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		link := ""
		if purchaseURL != "" {
			link = fmt.Sprintf(`<a class="button" href="%s">Get access</a>`, templ.EscapeString(string(templ.URL(purchaseURL))))
		}
		body := fmt.Sprintf(`<main><div class="notice"><h1>%s</h1><p>%s</p>%s</div></main>`,
			templ.EscapeString(title), templ.EscapeString(message), link)
		return writePage(w, title, body, false)
	})
}
