package api

import (
	"bytes"
	"html/template"
	"net/http"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Вход в систему</title>
</head>
<body>
<main class="login">
  <h1>Информационный портал</h1>
  <p>Авторизуйтесь для доступа к контенту</p>

  <p id="notice" class="notice"{{if .Notice}} data-level="{{.Notice.Level}}"{{else}} hidden{{end}}>{{if .Notice}}{{.Notice.Message}}{{end}}</p>
  <p id="busy" hidden>Подключение...</p>

  {{if .Configured}}
  <div id="{{.ContainerID}}" class="telegram-login" data-mount="{{.MountKey}}">{{.WidgetHTML}}</div>
  {{end}}

  {{if .DemoEnabled}}
  <button id="demo-login" type="button">Войти в демо-режиме</button>
  {{end}}
</main>
<script>
(function () {
  var busy = document.getElementById('busy');
  var notice = document.getElementById('notice');

  function setBusy(on) {
    busy.hidden = !on;
    var demo = document.getElementById('demo-login');
    if (demo) { demo.disabled = on; }
  }

  function show(level, message) {
    notice.dataset.level = level;
    notice.textContent = message;
    notice.hidden = !message;
  }

  function finish(promise) {
    setBusy(true);
    return promise
      .then(function (resp) { return resp.json(); })
      .then(function (res) {
        if (res.redirect) { window.location.assign(res.redirect); return; }
        show('error', res.message || 'Authorization failed');
      })
      .catch(function () { show('error', 'Could not reach server'); })
      .finally(function () { setBusy(false); });
  }

  window.TelegramLoginWidget = {
    dispatch: function (key, user) {
      return finish(fetch('/api/auth/widget/' + encodeURIComponent(key), {
        method: 'POST',
        credentials: 'same-origin',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify(user)
      }));
    }
  };

  var demo = document.getElementById('demo-login');
  if (demo) {
    demo.addEventListener('click', function () {
      finish(fetch('/api/auth/demo', {method: 'POST', credentials: 'same-origin'}));
    });
  }
})();
</script>
</body>
</html>
`))

var portalTemplate = template.Must(template.New("portal").Parse(`<!doctype html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Портал</title>
</head>
<body>
<header>
  <h1>Портал</h1>
  <div class="user">
    {{if .PhotoURL}}<img src="{{.PhotoURL}}" alt="" width="40" height="40">{{else}}<span class="avatar">{{.Initials}}</span>{{end}}
    <strong>{{.Name}}</strong>{{if .Handle}} <span>{{.Handle}}</span>{{end}}
    {{if .Demo}}<span class="badge">демо</span>{{end}}
    {{if .SignedIn}}<small>вход {{.SignedIn}}</small>{{end}}
  </div>
  <button id="logout" type="button">Выйти</button>
</header>
<main>
  <section class="articles">
  {{range .Articles}}
    <article data-id="{{.ID}}">
      <span class="category">{{.Category}}</span>
      <h2>{{.Title}}</h2>
      <p>{{.Excerpt}}</p>
      <small>{{.Date}} · {{.ReadTime}}</small>
    </article>
  {{end}}
  </section>
  <section class="settings">
    <label><input type="checkbox" id="notifications"{{if .Preferences.Notifications}} checked{{end}}> Уведомления</label>
    <label><input type="checkbox" id="email-updates"{{if .Preferences.EmailUpdates}} checked{{end}}{{if .Demo}} disabled{{end}}> Email-рассылка</label>
    <a href="/api/portal/export" download>Экспортировать данные</a>
  </section>
</main>
<script>
(function () {
  document.getElementById('logout').addEventListener('click', function () {
    fetch('/api/auth/logout', {method: 'POST', credentials: 'same-origin'})
      .finally(function () { window.location.assign('/'); });
  });

  function save() {
    fetch('/api/portal/preferences', {
      method: 'PUT',
      credentials: 'same-origin',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({
        notifications: document.getElementById('notifications').checked,
        emailUpdates: document.getElementById('email-updates').checked
      })
    });
  }
  document.getElementById('notifications').addEventListener('change', save);
  document.getElementById('email-updates').addEventListener('change', save);
})();
</script>
</body>
</html>
`))

// renderPage executes tmpl into a buffer first so a template error does not
// leave a half-written page.
func renderPage(w http.ResponseWriter, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
