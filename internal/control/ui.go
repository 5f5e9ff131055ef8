package control

// dashboardHTML is a minimal, dependency-free status page: it polls
// /api/state and renders the aggregate snapshot (config, equity/exposure
// figures, and recent movement rows) as plain text. No build step, no
// static assets directory — this is the whole UI.
const dashboardHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>copy trader</title></head>
<body style="font-family: monospace; background:#111; color:#ddd; padding:2rem;">
<h1>copy trader</h1>
<pre id="state">loading...</pre>
<script>
async function refresh() {
  try {
    const s = await fetch('/api/state' + window.location.search).then(r => r.json());
    document.getElementById('state').textContent = JSON.stringify(s, null, 2);
  } catch (e) {
    document.getElementById('state').textContent = 'error: ' + e;
  }
}
refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>
`
