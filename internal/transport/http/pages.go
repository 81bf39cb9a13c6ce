package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// devPageHTML drives the public endpoints from a browser: password + OTP
// sign-in, registration and the QR handshake from the anonymous side.
var devPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>Auth QR OTP</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: linear-gradient(135deg,#1d976c,#2f80ed); color: #fff; min-height: 100vh; display: flex; flex-direction: column; }
header { flex: 1; padding: 60px 20px; text-align: center; }
button { margin: 10px; padding: 12px 24px; font-size: 16px; border: none; border-radius: 4px; cursor: pointer; background: rgba(255,255,255,0.2); color: #fff; transition: background 0.3s; }
button:hover { background: rgba(255,255,255,0.4); }
.modal { display: none; position: fixed; top: 0; left: 0; width: 100%; height: 100%; background: rgba(0,0,0,0.5); justify-content: center; align-items: center; }
.modal-content { background: #fff; color: #333; padding: 24px; border-radius: 8px; width: 90%; max-width: 420px; box-shadow: 0 10px 40px rgba(0,0,0,0.2); word-break: break-all; }
.close { float: right; cursor: pointer; font-size: 20px; }
input { width: 100%; padding: 10px; margin: 8px 0; border: 1px solid #ccc; border-radius: 4px; }
footer { text-align: center; padding: 20px; font-size: 14px; opacity: 0.8; }
</style>
</head>
<body>
<header>
  <h1>Auth QR OTP</h1>
  <p id="status">Not signed in.</p>
  <button onclick="openModal('login')">Login</button>
  <button onclick="openModal('register')">Register</button>
  <button onclick="startQR()">Login with QR</button>
  <button onclick="logout()">Logout</button>
</header>
<div id="modal" class="modal">
  <div class="modal-content">
    <span class="close" onclick="closeModal()">&times;</span>
    <div id="forms"></div>
  </div>
</div>
<footer>Development page. Not served in production.</footer>
<script>
const forms = {
  login: '<h2>Login</h2>\n<form onsubmit="return login(event)">\n  <input name="identifier" placeholder="Phone number or username" required />\n  <input type="password" name="password" placeholder="Password" required />\n  <button type="submit">Continue</button>\n</form>',
  otp: '<h2>Enter code</h2>\n<form onsubmit="return verifyOtp(event)">\n  <input name="otpCode" placeholder="6 digit code" required />\n  <button type="submit">Verify</button>\n</form>',
  register: '<h2>Register</h2>\n<form onsubmit="return register(event)">\n  <input name="identifier" placeholder="Phone number" required />\n  <input name="displayName" placeholder="Username" required />\n  <input type="password" name="password" placeholder="Password" required />\n  <input type="password" name="confirmPassword" placeholder="Confirm password" required />\n  <button type="submit">Register</button>\n</form>'
};
let pendingUserId = null;

function openModal(type, extra) {
  document.getElementById('forms').innerHTML = forms[type] || type;
  if (extra) { document.getElementById('forms').insertAdjacentHTML('beforeend', extra); }
  document.getElementById('modal').style.display = 'flex';
}
function closeModal() {
  document.getElementById('modal').style.display = 'none';
}
function formJSON(event) {
  event.preventDefault();
  return JSON.stringify(Object.fromEntries(new FormData(event.target).entries()));
}
async function post(path, body) {
  const response = await fetch(path, { method: 'POST', credentials: 'include', headers: { 'Content-Type': 'application/json' }, body: body });
  return { ok: response.ok, body: await response.json() };
}
async function login(event) {
  const res = await post('/auth/login', formJSON(event));
  if (!res.ok) { alert(res.body.message); return false; }
  pendingUserId = res.body.data.userId;
  const hint = res.body.data.otpCode ? '<p>Development code: ' + res.body.data.otpCode + '</p>' : '';
  openModal('otp', hint);
  return false;
}
async function verifyOtp(event) {
  const payload = JSON.parse(formJSON(event));
  payload.userId = pendingUserId;
  const res = await post('/auth/verify-otp', JSON.stringify(payload));
  if (!res.ok) { alert(res.body.message); return false; }
  closeModal();
  refresh();
  return false;
}
async function register(event) {
  const res = await post('/user/register', formJSON(event));
  alert(res.body.message);
  if (res.ok) { openModal('login'); }
  return false;
}
async function startQR() {
  const res = await post('/auth/generate-qr-code', '{}');
  if (!res.ok) { alert(res.body.message); return; }
  const qr = res.body.data;
  openModal('<h2>Scan on a signed-in device</h2><p>Code: ' + qr.code + '</p><p>Expires: ' + qr.expiresAt + '</p>');
  while (true) {
    const claim = await post('/auth/claim-qr-code', JSON.stringify({ qrCode: qr.code, pollToken: qr.pollToken, waitSeconds: 25 }));
    if (!claim.ok) { alert(claim.body.message); return; }
    if (claim.body.data.status === 'claimed') { closeModal(); refresh(); return; }
  }
}
async function logout() {
  await post('/auth/logout', '{}');
  refresh();
}
async function refresh() {
  const response = await fetch('/auth/me', { credentials: 'include' });
  const el = document.getElementById('status');
  if (!response.ok) { el.textContent = 'Not signed in.'; return; }
  const body = await response.json();
  el.textContent = 'Signed in as ' + body.data.username + ' (' + body.data.phoneNumber + ')';
}
window.onclick = function(event) {
  if (event.target === document.getElementById('modal')) {
    closeModal();
  }
};
refresh();
</script>
</body>
</html>`

// RegisterPages serves the development page at "/".
func RegisterPages(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, devPageHTML)
	})
}
