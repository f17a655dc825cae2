package report

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Creative analysis {{.RequestID}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.pass { color: #1a7f37; } .fail { color: #cf222e; }
</style>
</head>
<body>
<h1>Creative analysis</h1>
<p class="meta">Request <span id="request-id">{{.RequestID}}</span> · generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}} · {{.Width}}×{{.Height}} px</p>
{{if .Thumbnail}}<img id="thumbnail" alt="analysed creative" src="{{.Thumbnail}}">{{end}}

<h2>Contrast</h2>
<p>Score <strong id="contrast-score">{{.Contrast.Score}}</strong> (<span id="contrast-tier">{{.Contrast.Tier}}</span>)</p>
<ul id="suggestions">
{{range .Contrast.Suggestions}}<li>{{.}}</li>
{{end}}</ul>

<h2>Attention</h2>
<table id="hotspots">
<thead><tr><th>Rank</th><th>X</th><th>Y</th><th>Intensity</th></tr></thead>
<tbody>
{{range .Hotspots}}<tr><td>{{.Rank}}</td><td>{{.X}}</td><td>{{.Y}}</td><td>{{printf "%.2f" .Intensity}}</td></tr>
{{else}}<tr class="empty"><td colspan="4">No hotspots</td></tr>
{{end}}</tbody>
</table>
<dl id="timeline">
<dt>Initial focus</dt><dd class="initial">{{.Timeline.InitialFocus}}</dd>
<dt>Scan path</dt><dd class="scan">{{.Timeline.ScanPath}}</dd>
<dt>Final resting</dt><dd class="final">{{.Timeline.FinalResting}}</dd>
</dl>

<h2>Elements</h2>
<table id="elements">
<thead><tr><th>Type</th><th>Detail</th></tr></thead>
<tbody>
{{range .Elements}}<tr><td>{{.Type}}</td><td>{{elementDetail .}}</td></tr>
{{end}}</tbody>
</table>

{{with .Verdict}}
<h2>Benchmark</h2>
<p id="benchmark" class="{{if .Passes}}pass{{else}}fail{{end}}">{{.Profile}}{{if .Platform}} / {{.Platform}}{{end}}: {{if .Passes}}passes{{else}}does not pass{{end}}</p>
<table id="metrics">
<thead><tr><th>Metric</th><th>Value</th><th>Benchmark</th><th>Meets</th></tr></thead>
<tbody>
{{range $name, $m := .Metrics}}<tr data-metric="{{$name}}"><td>{{$name}}</td><td>{{$m.Value}}</td><td>{{$m.Benchmark}}</td><td class="{{if $m.Meets}}pass{{else}}fail{{end}}">{{$m.Meets}}</td></tr>
{{end}}</tbody>
</table>
{{end}}

{{if .Layout}}
<h2>Layout suggestions</h2>
<table id="layout">
<thead><tr><th>Element</th><th>From</th><th>To</th></tr></thead>
<tbody>
{{range .Layout}}<tr><td>{{.Element.Type}}</td><td>({{.X}}, {{.Y}})</td><td>({{.NewX}}, {{.NewY}})</td></tr>
{{end}}</tbody>
</table>
{{end}}
</body>
</html>
`
