package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/capsense-health/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hex": func(v uint32) string {
		return fmt.Sprintf("0x%08x", v)
	},
	"anomalous": func(mask uint32, pos int) bool {
		return mask&(1<<uint(pos)) != 0
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>CapSense Health</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.bad { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>CapSense Health</h1>

<h2>State</h2>
<table>
<tr><th>Health</th><td class="{{if eq .LastMask 0}}ok{{else}}bad{{end}}">{{if eq .LastMask 0}}OK{{else}}ANOMALOUS{{end}}</td></tr>
<tr><th>Last result mask</th><td>{{hex .LastMask}}</td></tr>
<tr><th>Cycles</th><td>{{.Cycles}}</td></tr>
<tr><th>Baseline resets</th><td>{{.BaselineResets}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th>Pos</th><th>Widget</th><th>Sensor</th><th>Diff</th><th>Touched</th><th>NML</th><th>Stuck</th><th></th></tr>
{{range .Sensors}}<tr>
<td>{{.Position}}</td><td>{{.Widget}}</td><td>{{.Sensor}}</td><td>{{.LastDiff}}</td>
<td>{{if .Touched}}yes{{else}}no{{end}}</td><td>{{.NoMansLand}}</td><td>{{.Stuck}}</td>
<td class="{{if anomalous $.LastMask .Position}}bad{{else}}ok{{end}}">{{if anomalous $.LastMask .Position}}!{{end}}</td>
</tr>{{end}}
</table>

<h2>Rule Counts</h2>
<table>
<tr><th>Hyper event</th><td>{{.Counts.HyperEvent}}</td></tr>
<tr><th>No man's land</th><td>{{.Counts.NoMansLand}}</td></tr>
<tr><th>Stuck sensor</th><td>{{.Counts.StuckSensor}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Scan cycle</th><td>{{.Config.ScanMs}}ms</td></tr>
<tr><th>Stuck timeout</th><td>{{.Config.StuckTimeoutMs}}ms</td></tr>
<tr><th>NML timeout</th><td>{{.Config.NMLTimeoutMs}}ms</td></tr>
<tr><th>Hyper multiplier</th><td>{{.Config.HyperMult}}</td></tr>
<tr><th>Sensor mask</th><td>{{hex .Config.SensorMask}}</td></tr>
<tr><th>Baseline correction</th><td>{{if .Config.ResetBaseline}}enabled{{else}}report only{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
