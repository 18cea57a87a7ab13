package main

import (
	"net/http"
)

// overlayPage is the whole frontend. It listens to the bridge events and
// renders the connection, phase and chest state.
const overlayPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { margin: 0; font: 12px sans-serif; color: #e8e6e3; background: rgba(12,14,20,0.85); }
  .row { padding: 4px 10px; }
  .dim { color: #8a8f98; }
  .box { color: #f0c75e; }
</style>
</head>
<body>
  <div class="row" id="connection">DISCONNECTED</div>
  <div class="row dim" id="summoner"></div>
  <div class="row"><span id="phase">None</span> <span id="mode" class="dim"></span></div>
  <div class="row box" id="selected"></div>
  <div class="row dim" id="chest"></div>
<script>
  const $ = (id) => document.getElementById(id);
  const ownership = ["Not owned", "Free to play", "Rental", "Chest earned", "Chest available"];
  const on = (name, fn) => window.runtime.EventsOn(name, fn);

  on("connection:update", (e) => { $("connection").textContent = e.state; });
  on("summoner:update", (s) => { $("summoner").textContent = s.displayName || ""; });
  on("phase:update", (e) => { $("phase").textContent = e.phase; });
  on("gamemode:update", (e) => { $("mode").textContent = e.gameMode === "NONE" ? "" : e.gameMode; });
  on("chest:update", (c) => {
    $("chest").textContent = c.hasDate
      ? c.earnableChests + " chest(s), next " + new Date(c.nextChestDate).toLocaleString()
      : "";
  });
  on("champselect:update", (c) => {
    const mine = (c.teamChampions || []).find((s) => s.state === 2 && s.champion.isSelectedBySelf);
    $("selected").textContent = mine
      ? mine.champion.name + ": " + ownership[mine.champion.ownershipStatus]
      : "";
  });
</script>
</body>
</html>
`

func serveOverlay(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(overlayPage))
}
