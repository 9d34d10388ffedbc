package export

import (
	"html/template"
	"io"
	"net/url"
	"path/filepath"

	"findidentical/types"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
.set { position: relative; display: inline-block; border: 1px solid #cccccc; margin: 2em 1em; padding: 2em; font-size: small; }
.set > .set_id { position: absolute; top: 0; left: 0; padding: 0.2em 0.5em; background-color: black; color: white; }
.set figure { display: inline-block; margin: 0.2em 0.3em; }
.set figure img { max-width: 300px; max-height: 300px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Identical}} identical images in {{.GroupCount}} sets.</p>
{{range .Buckets}}<section>
<h2>{{.Count}} sets of identical images with dimension {{.Key}}</h2>
{{range .Sets}}<div class="set"><span class="set_id">{{.ID}}</span>
{{range .Members}}<figure><a href="{{.URL}}"><img src="{{.URL}}" alt="{{.Name}}" loading="lazy"></a><figcaption>{{.Name}}</figcaption></figure>
{{end}}</div>
{{end}}</section>
{{end}}</body>
</html>
`))

type htmlMember struct {
	Name string
	URL  template.URL
}

type htmlSet struct {
	ID      int
	Members []htmlMember
}

type htmlBucket struct {
	Key   types.BucketKey
	Count int
	Sets  []htmlSet
}

type htmlPage struct {
	Title      string
	Identical  int
	GroupCount int
	Buckets    []htmlBucket
}

// WriteHTML writes a self-contained page that shows every set with thumbnails
func WriteHTML(w io.Writer, result *types.Result) error {
	page := htmlPage{
		Title:      pageTitle(result),
		Identical:  result.IdenticalCount(),
		GroupCount: result.GroupCount(),
	}
	for _, bg := range result.Buckets {
		hb := htmlBucket{Key: bg.Key, Count: len(bg.Groups)}
		for gi, g := range bg.Groups {
			set := htmlSet{ID: gi}
			for _, ref := range g {
				set.Members = append(set.Members, htmlMember{
					Name: result.DisplayPath(ref),
					URL:  fileURL(result, ref),
				})
			}
			hb.Sets = append(hb.Sets, set)
		}
		page.Buckets = append(page.Buckets, hb)
	}
	return pageTemplate.Execute(w, page)
}

func pageTitle(result *types.Result) string {
	if result.IsCross() {
		return "Identical images between [" + result.Collections[0].Name + "/] and [" + result.Collections[1].Name + "/]"
	}
	if len(result.Collections) == 1 {
		return "Identical images in [" + result.Collections[0].Name + "/]"
	}
	return "Identical images"
}

func fileURL(result *types.Result, ref types.ImageRef) template.URL {
	c := result.Collection(ref.Collection)
	if c == nil || ref.Index < 0 || ref.Index >= len(c.Files) {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(c.Root, filepath.FromSlash(c.Files[ref.Index])))}
	return template.URL(u.String())
}
