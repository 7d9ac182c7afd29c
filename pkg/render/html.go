package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/MarkovWon/Knowdes/pkg/graph"
)

// htmlPage is a self-contained viewer: the graph is embedded as JSON and
// laid out by an inline force simulation on a canvas. No network access
// is needed to open the file.
const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; height: 100%; background: #1a1b26; color: #c0caf5; font-family: system-ui, sans-serif; }
  #graph { display: block; width: 100vw; height: 100vh; }
  #detail {
    position: fixed; right: 12px; top: 12px; max-width: 320px;
    background: #24283b; border: 1px solid #414868; border-radius: 8px;
    padding: 12px 16px; font-size: 13px; display: none;
  }
  #detail h2 { margin: 0 0 6px; font-size: 15px; color: #7aa2f7; }
</style>
</head>
<body>
<canvas id="graph"></canvas>
<div id="detail"></div>
<script id="graph-data" type="application/json">{{.Data}}</script>
<script>
(function () {
  var data = JSON.parse(document.getElementById("graph-data").textContent);
  var canvas = document.getElementById("graph");
  var ctx = canvas.getContext("2d");
  var detail = document.getElementById("detail");

  var nodes = data.nodes.map(function (n, i) {
    var a = i * 2.39996, r = 10 * Math.sqrt(i);
    return Object.assign({ x: r * Math.cos(a), y: r * Math.sin(a), vx: 0, vy: 0 }, n);
  });
  var byId = {};
  nodes.forEach(function (n) { byId[n.id] = n; });
  var links = data.links.filter(function (l) { return byId[l.source] && byId[l.target]; });

  var alpha = 1, alphaMin = 0.001, alphaDecay = 1 - Math.pow(alphaMin, 1 / 300);
  var dragged = null;

  function step() {
    alpha += (0 - alpha) * alphaDecay;
    links.forEach(function (l) {
      var a = byId[l.source], b = byId[l.target];
      var dx = b.x - a.x, dy = b.y - a.y;
      var d = Math.sqrt(dx * dx + dy * dy) || 1;
      var f = 0.05 * (d - 80) * alpha;
      a.vx += f * dx / d; a.vy += f * dy / d;
      b.vx -= f * dx / d; b.vy -= f * dy / d;
    });
    for (var i = 0; i < nodes.length; i++) {
      for (var j = i + 1; j < nodes.length; j++) {
        var a = nodes[i], b = nodes[j];
        var dx = b.x - a.x, dy = b.y - a.y;
        var d2 = dx * dx + dy * dy || 1;
        var f = 2000 / d2 * alpha;
        var d = Math.sqrt(d2);
        a.vx -= f * dx / d; a.vy -= f * dy / d;
        b.vx += f * dx / d; b.vy += f * dy / d;
      }
    }
    nodes.forEach(function (n) {
      n.vx -= n.x * 0.01 * alpha;
      n.vy -= n.y * 0.01 * alpha;
      if (n === dragged) { n.vx = 0; n.vy = 0; return; }
      n.vx *= 0.85; n.vy *= 0.85;
      n.x += n.vx; n.y += n.vy;
    });
  }

  var groups = {}, palette = ["#7aa2f7", "#9ece6a", "#e0af68", "#bb9af7", "#f7768e", "#2ac3de", "#ff9e64", "#73daca"];
  function colorOf(g) {
    if (!g) return "#565f89";
    if (!(g in groups)) groups[g] = palette[Object.keys(groups).length % palette.length];
    return groups[g];
  }

  function draw() {
    var w = canvas.width = canvas.clientWidth, h = canvas.height = canvas.clientHeight;
    ctx.clearRect(0, 0, w, h);
    ctx.save();
    ctx.translate(w / 2, h / 2);
    ctx.strokeStyle = "#414868";
    links.forEach(function (l) {
      var a = byId[l.source], b = byId[l.target];
      ctx.beginPath(); ctx.moveTo(a.x, a.y); ctx.lineTo(b.x, b.y); ctx.stroke();
    });
    nodes.forEach(function (n) {
      ctx.beginPath();
      ctx.arc(n.x, n.y, 7, 0, 2 * Math.PI);
      ctx.fillStyle = colorOf(n.group);
      ctx.fill();
      ctx.fillStyle = "#c0caf5";
      ctx.font = "11px sans-serif";
      ctx.fillText(n.label || n.id, n.x + 10, n.y + 4);
    });
    ctx.restore();
  }

  function tick() {
    if (alpha >= alphaMin || dragged) step();
    draw();
    requestAnimationFrame(tick);
  }

  function nodeAt(ev) {
    var r = canvas.getBoundingClientRect();
    var x = ev.clientX - r.left - canvas.clientWidth / 2;
    var y = ev.clientY - r.top - canvas.clientHeight / 2;
    return nodes.find(function (n) {
      var dx = n.x - x, dy = n.y - y;
      return dx * dx + dy * dy < 100;
    });
  }

  canvas.addEventListener("mousedown", function (ev) {
    dragged = nodeAt(ev);
    if (dragged) alpha = Math.max(alpha, 0.3);
  });
  canvas.addEventListener("mousemove", function (ev) {
    if (!dragged) return;
    var r = canvas.getBoundingClientRect();
    dragged.x = ev.clientX - r.left - canvas.clientWidth / 2;
    dragged.y = ev.clientY - r.top - canvas.clientHeight / 2;
  });
  canvas.addEventListener("mouseup", function () { dragged = null; });
  canvas.addEventListener("click", function (ev) {
    var n = nodeAt(ev);
    if (!n) { detail.style.display = "none"; return; }
    detail.innerHTML = "<h2></h2><p></p>";
    detail.querySelector("h2").textContent = n.label || n.id;
    detail.querySelector("p").textContent = n.description || "";
    detail.style.display = "block";
  });

  window.addEventListener("resize", draw);
  tick();
})();
</script>
</body>
</html>
`

var htmlTmpl = template.Must(template.New("page").Parse(htmlPage))

// ToHTML produces a self-contained interactive viewer page for the graph.
// The page embeds the graph data and needs no external assets.
func ToHTML(g graph.Graph, title string) ([]byte, error) {
	if title == "" {
		title = "Concept graph"
	}

	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	var buf bytes.Buffer
	err = htmlTmpl.Execute(&buf, struct {
		Title string
		Data  template.JS
	}{Title: title, Data: template.JS(data)})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
