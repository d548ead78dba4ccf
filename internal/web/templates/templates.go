// Package templates provides the templ components for the web UI. The UI is
// a single static shell that drives the JSON API from the browser, so the
// components are plain Go rather than generated .templ files.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Index renders the single-page UI
func Index() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, indexHTML)
		return err
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>audiofetch</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; background: #111; color: #eee; }
h1 { font-size: 1.4rem; }
input[type=text] { width: 70%; padding: .5rem; border-radius: 6px; border: 1px solid #444; background: #1c1c1c; color: #eee; }
button { padding: .5rem .9rem; border-radius: 6px; border: none; background: #c4302b; color: #fff; cursor: pointer; }
button:hover { background: #e0423c; }
ul { list-style: none; padding: 0; }
li { display: flex; align-items: center; gap: .7rem; padding: .5rem; border-bottom: 1px solid #2a2a2a; }
li img { width: 96px; border-radius: 4px; }
.meta { flex: 1; }
.meta .title { font-weight: 600; }
.meta .sub { color: #999; font-size: .85rem; }
.status { color: #8ab4f8; font-size: .85rem; }
#playlist-panel { margin-top: 2rem; }
.current { outline: 1px solid #c4302b; border-radius: 4px; }
</style>
</head>
<body>
<h1>audiofetch</h1>
<div>
  <input type="text" id="query" placeholder="Search or paste a video URL">
  <button id="go">Search</button>
</div>
<ul id="results"></ul>
<div id="playlist-panel">
  <h2>Playlist</h2>
  <div>
    <button onclick="playlistOp('prev')">&#9664;</button>
    <button onclick="playlistOp('next')">&#9654;</button>
    <button onclick="playlistClear()">Clear</button>
  </div>
  <ul id="playlist"></ul>
</div>
<script>
const fmtDuration = s => s ? Math.floor(s / 60) + ':' + String(s % 60).padStart(2, '0') : '';

async function api(path, opts) {
  const resp = await fetch(path, opts);
  return resp.json();
}

async function doSearch() {
  const q = document.getElementById('query').value;
  if (q.startsWith('http')) { startDownload(q); return; }
  const data = await api('/api/search?q=' + encodeURIComponent(q));
  const list = document.getElementById('results');
  list.innerHTML = '';
  for (const r of (data.results || [])) {
    const li = document.createElement('li');
    li.innerHTML = '<img src="' + r.thumbnail + '">' +
      '<div class="meta"><div class="title"></div><div class="sub">' +
      r.uploader + ' &middot; ' + fmtDuration(r.duration) + '</div></div>';
    li.querySelector('.title').textContent = r.title;
    const dl = document.createElement('button');
    dl.textContent = 'Download';
    dl.onclick = () => startDownload(r.url, li);
    const add = document.createElement('button');
    add.textContent = '+ Playlist';
    add.onclick = () => addToPlaylist(r);
    li.append(dl, add);
    list.append(li);
  }
}

async function startDownload(url, li) {
  const data = await api('/api/download', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({url})
  });
  if (data.error) { alert(data.error); return; }
  pollStatus(data.download_id, li);
}

async function pollStatus(id, li) {
  const status = li ? li.appendChild(document.createElement('span')) : null;
  if (status) status.className = 'status';
  const timer = setInterval(async () => {
    const job = await api('/api/status/' + id);
    if (status) status.textContent = job.status +
      (job.progress ? ' ' + job.progress.toFixed(0) + '%' : '') +
      (job.speed ? ' @ ' + job.speed : '');
    if (job.status === 'completed') {
      clearInterval(timer);
      window.location = '/api/stream/' + id;
      setTimeout(() => api('/api/cleanup', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({download_id: id})
      }), 60000);
    } else if (job.status === 'error' || job.error) {
      clearInterval(timer);
      if (status) status.textContent = 'error: ' + (job.error || 'unknown');
    }
  }, 1000);
}

async function addToPlaylist(track) {
  await api('/api/playlist', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify(track)
  });
  refreshPlaylist();
}

async function removeFromPlaylist(id) {
  await api('/api/playlist', {
    method: 'DELETE',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({id})
  });
  refreshPlaylist();
}

async function playlistOp(op) {
  await api('/api/playlist/' + op, {method: 'POST'});
  refreshPlaylist();
}

async function playlistClear() {
  await api('/api/playlist/clear', {method: 'POST'});
  refreshPlaylist();
}

async function refreshPlaylist() {
  const state = await api('/api/playlist');
  const list = document.getElementById('playlist');
  list.innerHTML = '';
  (state.tracks || []).forEach((track, i) => {
    const li = document.createElement('li');
    if (i === state.current_index) li.className = 'current';
    li.innerHTML = '<div class="meta"><div class="title"></div><div class="sub">' +
      track.uploader + ' &middot; ' + fmtDuration(track.duration) + '</div></div>';
    li.querySelector('.title').textContent = track.title;
    const play = document.createElement('button');
    play.textContent = 'Play';
    play.onclick = async () => {
      await api('/api/playlist/current', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({id: track.id})
      });
      refreshPlaylist();
    };
    const del = document.createElement('button');
    del.textContent = 'Remove';
    del.onclick = () => removeFromPlaylist(track.id);
    li.append(play, del);
    list.append(li);
  });
}

document.getElementById('go').onclick = doSearch;
document.getElementById('query').addEventListener('keydown', e => { if (e.key === 'Enter') doSearch(); });
refreshPlaylist();
</script>
</body>
</html>
`
