package server

// indexHTML is the demo page: it captures webcam frames on an interval
// and posts them to /analyze, rendering the verdict inline.
const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>focusd</title>
    <style>
      :root { --success: #3fb950; --danger: #f85149; --muted: #8b949e; }
      body { font-family: -apple-system, sans-serif; background: #0d1117; color: #e6edf3; margin: 0; padding: 24px; }
      .wrap { max-width: 720px; margin: 0 auto; display: flex; flex-direction: column; gap: 16px; }
      video { width: 100%; border-radius: 8px; background: #000; transform: scaleX(-1); }
      .row { display: flex; justify-content: space-between; align-items: center; }
      .badge { padding: 4px 12px; border-radius: 999px; font-weight: 600; background: #21262d; }
      .badge.FOCUSED { background: var(--success); color: #04260f; }
      .badge.DISTRACTED, .badge.ERROR { background: var(--danger); color: #2d0705; }
      #detail { color: var(--muted); min-height: 1.4em; }
      button { padding: 8px 20px; border: 0; border-radius: 6px; background: #238636; color: #fff; cursor: pointer; }
      button:disabled { opacity: .5; cursor: default; }
      button.secondary { background: #21262d; color: #e6edf3; }
      .meta { color: var(--muted); font-size: 13px; }
    </style>
  </head>
  <body>
    <div class="wrap">
      <div class="row">
        <h1>focusd</h1>
        <div id="badge" class="badge">Ready</div>
      </div>
      <video id="video" autoplay playsinline></video>
      <div id="detail">Waiting...</div>
      <div class="row">
        <div>
          <button id="start">Start</button>
          <button id="stop" class="secondary" disabled>Stop</button>
        </div>
        <div class="meta"><span id="backend">loading...</span> · <span id="latency">-</span></div>
      </div>
    </div>
    <canvas id="canvas" style="display:none"></canvas>
    <script>
      const video = document.getElementById("video"), canvas = document.getElementById("canvas"),
            badge = document.getElementById("badge"), detail = document.getElementById("detail"),
            latency = document.getElementById("latency"), backend = document.getElementById("backend"),
            startBtn = document.getElementById("start"), stopBtn = document.getElementById("stop");
      let stream, running = false, timer;

      function render(v) {
        badge.textContent = v.label + (v.stale ? " (stale)" : "");
        badge.className = "badge " + v.label;
        detail.textContent = v.detail || v.reason || "";
        latency.textContent = v.elapsed != null ? (v.elapsed * 1000).toFixed(0) + "ms" : "-";
      }

      async function loop() {
        if (!running) return;
        if (!video.videoWidth) { timer = setTimeout(loop, 100); return; }
        canvas.width = 384;
        canvas.height = 384 * (video.videoHeight / video.videoWidth);
        canvas.getContext("2d").drawImage(video, 0, 0, canvas.width, canvas.height);
        try {
          const res = await fetch("/analyze", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({ image: canvas.toDataURL("image/jpeg", 0.6) }),
          });
          render(await res.json());
        } catch (e) {}
        if (running) timer = setTimeout(loop, 2500);
      }

      startBtn.onclick = async () => {
        try {
          stream = await navigator.mediaDevices.getUserMedia({ video: true });
          video.srcObject = stream;
          running = true; startBtn.disabled = true; stopBtn.disabled = false;
          loop();
        } catch (e) { alert(e.message); }
      };

      stopBtn.onclick = () => {
        running = false; clearTimeout(timer);
        if (stream) stream.getTracks().forEach(t => t.stop());
        startBtn.disabled = false; stopBtn.disabled = true;
        badge.className = "badge"; badge.textContent = "Stopped";
      };

      (async () => {
        const res = await fetch("/config");
        const data = await res.json();
        backend.textContent = data.backend + " / " + (data.model || "default").split("/").pop();
      })();
    </script>
  </body>
</html>
`
