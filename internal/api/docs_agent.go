package api

const agentDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Agent Surface — Pagegate</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; }

    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
      display: flex;
      flex-direction: column;
      min-height: 100vh;
    }

    a { color: #58a6ff; text-decoration: none; }
    a:hover { text-decoration: underline; }

    nav {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
      flex-shrink: 0;
    }
    nav .brand { font-weight: 600; font-size: 15px; color: #e6edf3; }
    nav .sep { color: #484f58; }
    nav .current { color: #e6edf3; font-weight: 500; }
    nav .back { font-size: 13px; }

    .layout {
      display: flex;
      flex: 1;
      max-width: 1100px;
      width: 100%;
      margin: 0 auto;
      padding: 0 16px;
    }

    aside {
      width: 220px;
      flex-shrink: 0;
      padding: 32px 16px 32px 0;
      position: sticky;
      top: 0;
      height: calc(100vh - 48px);
      overflow-y: auto;
    }
    aside h4 {
      margin: 0 0 8px;
      font-size: 11px;
      font-weight: 600;
      text-transform: uppercase;
      letter-spacing: .08em;
      color: #8b949e;
    }
    aside ul { list-style: none; margin: 0 0 24px; padding: 0; }
    aside ul li a {
      display: block;
      padding: 4px 8px;
      border-radius: 4px;
      font-size: 13px;
      color: #8b949e;
    }
    aside ul li a:hover { background: #21262d; color: #c9d1d9; text-decoration: none; }

    main {
      flex: 1;
      padding: 32px 0 64px 32px;
      border-left: 1px solid #21262d;
      min-width: 0;
    }

    h1 { margin: 0 0 8px; font-size: 28px; font-weight: 600; color: #e6edf3; }
    .subtitle { color: #8b949e; margin: 0 0 36px; font-size: 15px; }
    h2 {
      margin: 40px 0 12px;
      font-size: 18px;
      font-weight: 600;
      color: #e6edf3;
      padding-bottom: 8px;
      border-bottom: 1px solid #21262d;
    }
    h3 { margin: 28px 0 10px; font-size: 15px; font-weight: 600; color: #e6edf3; }
    p { margin: 0 0 12px; }

    .endpoint {
      display: inline-flex;
      align-items: center;
      gap: 10px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 10px 16px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 14px;
    }
    .method {
      background: #1f6feb;
      color: #fff;
      font-weight: 700;
      font-size: 11px;
      padding: 2px 7px;
      border-radius: 4px;
      letter-spacing: .04em;
    }
    .path { color: #e6edf3; }

    table { width: 100%; border-collapse: collapse; margin-bottom: 20px; font-size: 13px; }
    th {
      text-align: left;
      padding: 8px 12px;
      background: #161b22;
      color: #8b949e;
      font-weight: 600;
      border-bottom: 1px solid #30363d;
    }
    td { padding: 8px 12px; border-bottom: 1px solid #21262d; vertical-align: top; }
    tr:last-child td { border-bottom: none; }
    code {
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 12px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 3px;
      padding: 1px 5px;
      color: #e6edf3;
    }

    pre {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px;
      overflow-x: auto;
      margin: 0 0 20px;
    }
    pre code {
      background: none;
      border: none;
      padding: 0;
      font-size: 13px;
      line-height: 1.6;
      color: #c9d1d9;
    }

    .callout {
      background: #161b22;
      border-left: 3px solid #1f6feb;
      border-radius: 0 6px 6px 0;
      padding: 12px 16px;
      margin-bottom: 20px;
      font-size: 13px;
    }
    .callout.warning { border-color: #d29922; }
    .callout strong { color: #e6edf3; }

    .feed-card {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 8px;
      padding: 16px 20px;
      margin-bottom: 14px;
    }
    .feed-card h3 { margin: 0 0 10px; font-size: 14px; }
    .feed-card code { font-size: 13px; }
    .feed-meta {
      display: flex;
      flex-wrap: wrap;
      gap: 8px;
      margin-bottom: 10px;
      font-size: 12px;
    }
    .feed-meta span { color: #8b949e; }
    .tag {
      background: #21262d;
      border: 1px solid #30363d;
      border-radius: 3px;
      padding: 1px 6px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 11px;
      color: #8b949e;
    }

    .sse-block {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 13px;
      line-height: 1.8;
    }
    .sse-key { color: #79c0ff; }
    .sse-value { color: #a5d6ff; }
  </style>
</head>
<body>

<nav>
  <span class="brand">Pagegate</span>
  <span class="sep">/</span>
  <span class="current">Agent Surface</span>
  <a class="back" href="/docs">← REST API Docs</a>
</nav>

<div class="layout">

  <aside>
    <h4>On this page</h4>
    <ul>
      <li><a href="#overview">Overview</a></li>
      <li><a href="#cookie">The Cookie Contract</a></li>
      <li><a href="#sync">Sync Endpoint</a></li>
      <li><a href="#port">Injector Port</a></li>
      <li><a href="#events">Event Stream</a></li>
      <li><a href="#examples">Examples</a></li>
      <li><a href="#notes">Notes</a></li>
    </ul>
  </aside>

  <main>
    <h1>Agent Surface</h1>
    <p class="subtitle">How an in-page agent discovers it is authorized, fetches its config, and talks back to the gate.</p>

    <!-- OVERVIEW -->
    <h2 id="overview">Overview</h2>
    <p>
      Pagegate never injects anything into a page. It publishes a signal an already-present
      agent can observe: a cookie that exists only on whitelisted pages. The cookie's value
      is an opaque one-time token; the agent exchanges it for a sync envelope carrying its
      tab identity and per-page config, then optionally opens the injector port to send
      commands back.
    </p>
    <div class="callout">
      <strong>Flow:</strong> read cookie → <code>GET /sync/{token}</code> →
      parse envelope → connect <code>/port/injector?tab=…</code>.
    </div>

    <!-- COOKIE -->
    <h2 id="cookie">The Cookie Contract</h2>
    <p>
      On every settle of a whitelisted page, the gate sets a cookie named
      <code>__pagegate</code> scoped to the page's canonical URL and path. On blacklisted
      and unclassified pages the cookie is cleared. Three observations matter:
    </p>
    <table>
      <thead>
        <tr><th>Observation</th><th>Meaning</th></tr>
      </thead>
      <tbody>
        <tr><td>Cookie present</td><td>This page is whitelisted; the value is a live sync token.</td></tr>
        <tr><td>Cookie absent</td><td>Not authorized. Do nothing.</td></tr>
        <tr><td>Value changed</td><td>Config was re-published. Re-fetch the envelope.</td></tr>
      </tbody>
    </table>
    <div class="callout warning">
      <strong>Tokens rotate.</strong> Every pipeline settle replaces the page's token and
      kills the old one. Exchange the token promptly and expect 404 on stale values.
    </div>

    <!-- SYNC -->
    <h2 id="sync">Sync Endpoint</h2>
    <div class="endpoint">
      <span class="method">GET</span>
      <span class="path">/sync/{token}</span>
    </div>
    <p>
      Resolves a token read from the cookie to its envelope. Unknown or expired tokens
      return <code>404</code>.
    </p>
    <h3>Envelope</h3>
    <pre><code>{
  "url": "https://app.example.com/dash",
  "tab_id": "8A3F09D2C14B76E5",
  "config": {"theme": "dark", "level": 2}
}</code></pre>
    <table>
      <thead>
        <tr><th>Field</th><th>Description</th></tr>
      </thead>
      <tbody>
        <tr><td><code>url</code></td><td>Canonical URL the authorization was granted for.</td></tr>
        <tr><td><code>tab_id</code></td><td>Browser target id of the tab. Pass it as <code>?tab=</code> when opening the port.</td></tr>
        <tr><td><code>config</code></td><td>Per-page config blob, if one was stored. Opaque to the gate.</td></tr>
      </tbody>
    </table>

    <!-- PORT -->
    <h2 id="port">Injector Port</h2>
    <div class="endpoint">
      <span class="method">GET</span>
      <span class="path">/port/injector?tab={tab_id}</span>
    </div>
    <p>
      WebSocket upgrade. The <code>tab</code> query parameter is required and comes from
      the sync envelope. Port names other than <code>injector</code> return <code>404</code>.
      Frames are JSON text messages:
    </p>
    <pre><code>{"command": "reload"}
{"command": "save_settings", "content": "{\"theme\":\"dark\",\"level\":2}"}</code></pre>
    <table>
      <thead>
        <tr><th>Command</th><th>Effect</th></tr>
      </thead>
      <tbody>
        <tr>
          <td><code>reload</code></td>
          <td>Re-settles the tab and hard-reloads it (cache bypassed).</td>
        </tr>
        <tr>
          <td><code>save_settings</code></td>
          <td>
            Persists <code>content</code> — a JSON object encoded as a string — as the
            page's config. Picked up by the next sync envelope. Classification is untouched.
          </td>
        </tr>
      </tbody>
    </table>
    <p>
      Malformed frames and unknown commands are dropped; the connection stays open. The
      gate sends nothing on this socket.
    </p>

    <!-- EVENTS -->
    <h2 id="events">Event Stream</h2>
    <div class="endpoint">
      <span class="method">GET</span>
      <span class="path">/events?feeds=action,pages,tabs</span>
    </div>
    <p>
      SSE stream of gate activity, mainly for operator tooling. The optional
      <code>feeds</code> parameter is a comma-separated filter; omit it to receive
      everything. The <code>event</code> field is the feed name.
    </p>

    <div class="feed-card">
      <h3><code>action</code></h3>
      <div class="feed-meta">
        <span>Payload:</span>
        <span class="tag">call</span>
        <span class="tag">tab_id</span>
        <span class="tag">title</span>
        <span class="tag">icon</span>
      </div>
      <p>
        Every affordance call the gate pushes to a toolbar surface:
        <code>set_title</code>, <code>set_icon</code>, <code>show</code>, <code>hide</code>.
      </p>
    </div>

    <div class="feed-card">
      <h3><code>pages</code></h3>
      <div class="feed-meta">
        <span>Payload:</span>
        <span class="tag">url</span>
        <span class="tag">status</span>
      </div>
      <p>Classification changes: one event per toggle, carrying the new status.</p>
    </div>

    <div class="feed-card">
      <h3><code>tabs</code></h3>
      <div class="feed-meta">
        <span>Payload:</span>
        <span class="tag">event</span>
        <span class="tag">tab_id</span>
        <span class="tag">url</span>
      </div>
      <p>Tab lifecycle: <code>seen</code>, <code>navigated</code>, <code>closed</code>.</p>
    </div>

    <div class="sse-block">
      <span class="sse-key">event:</span> <span class="sse-value">pages</span><br>
      <span class="sse-key">data:</span> <span class="sse-value">{"url":"https://app.example.com/dash","status":"whitelisted"}</span><br>
      <br>
      <span class="sse-key">event:</span> <span class="sse-value">tabs</span><br>
      <span class="sse-key">data:</span> <span class="sse-value">{"event":"navigated","tab_id":"8A3F09D2C14B76E5","url":"https://app.example.com/dash"}</span><br>
    </div>

    <!-- EXAMPLES -->
    <h2 id="examples">Examples</h2>

    <h3>In-page agent — token exchange</h3>
    <pre><code>const m = document.cookie.match(/(?:^|;\s*)__pagegate=([^;]+)/);
if (m) {
  const resp = await fetch('http://127.0.0.1:8377/sync/' + m[1]);
  if (resp.ok) {
    const env = await resp.json();
    start(env.config);

    const port = new WebSocket('ws://127.0.0.1:8377/port/injector?tab=' + env.tab_id);
    port.onopen = () => port.send(JSON.stringify({
      command: 'save_settings',
      content: JSON.stringify({theme: 'dark'}),
    }));
  }
}</code></pre>

    <h3>curl</h3>
    <pre><code>curl http://127.0.0.1:8377/sync/2f1c9e0a-77af-4c65-9f0b-d8f5a9c3e1b4
curl -N 'http://127.0.0.1:8377/events?feeds=pages,tabs'</code></pre>

    <!-- NOTES -->
    <h2 id="notes">Notes</h2>
    <ul>
      <li>
        <strong>Buffer &amp; back-pressure:</strong> each event subscriber has a 256-event
        in-memory buffer. Slow clients will have events silently dropped — the broker is
        non-blocking.
      </li>
      <li>
        <strong>Reconnection:</strong> the browser's built-in <code>EventSource</code>
        automatically reconnects on disconnect. The injector port does not; reopen it
        after the reload your own <code>reload</code> command triggers.
      </li>
      <li>
        <strong>Authentication:</strong> none. Bind the daemon to <code>127.0.0.1</code>
        (the default) to prevent external access.
      </li>
    </ul>

  </main>
</div>

</body>
</html>`
