package render

import (
	_ "embed"
	"html/template"
)

//go:embed assets/github-markdown.css
var stylesheet []byte

// Stylesheet returns the bundled GitHub-flavored markdown stylesheet served
// at /style.css.
func Stylesheet() []byte {
	return stylesheet
}

type pageData struct {
	Title   string
	Version uint64
	Content template.HTML
	Error   string
}

// The body carries data-version so the polling script knows which version it
// is looking at; /updates?since=<that> answers 200 only for newer commits.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8"/>
<style>
body {
  box-sizing: border-box;
  min-width: 200px;
  max-width: 980px;
  margin: 0 auto;
  padding: 45px;
}
</style>
<link rel="stylesheet" href="/style.css">
<title>{{.Title}}</title>
</head>
<body data-version="{{.Version}}">
{{- if .Error}}
<article class="markdown-body">
<blockquote class="render-error">
<p><strong>Preview unavailable</strong></p>
<p>{{.Error}}</p>
</blockquote>
</article>
{{- else}}
<article class="markdown-body">
{{.Content}}
</article>
{{- end}}
<script>
(function () {
  var version = document.body.getAttribute("data-version");
  setInterval(function () {
    fetch("/updates?since=" + version).then(function (res) {
      if (res.ok) {
        location.reload();
      }
    }).catch(function () {});
  }, 1000);
})();
</script>
</body>
</html>
`))
