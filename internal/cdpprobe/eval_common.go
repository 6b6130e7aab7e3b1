package cdpprobe

import "encoding/json"

// jsDOMHelpers is the shared preamble for all panel probes: visibility,
// text/accessible-name extraction, slug normalization, and the ordered
// interactive-control list that resolver indexes refer to. The control list
// is rebuilt on every eval so indexes stay consistent with the live DOM.
const jsDOMHelpers = `
function _vis(el) {
  if (!el) return false;
  var r = el.getBoundingClientRect();
  if (r.width <= 0 || r.height <= 0) return false;
  var s = window.getComputedStyle(el);
  if (s.display === "none" || s.visibility === "hidden") return false;
  return true;
}
function _txt(el) {
  return String(el && el.textContent || "").replace(/\s+/g, " ").trim();
}
function _fold(s) {
  return String(s || "").replace(/\s+/g, " ").trim().toLowerCase();
}
function _slug(s) {
  return String(s || "").trim().toLowerCase().replace(/\s+/g, "-");
}
function _accName(el) {
  var a = el.getAttribute && el.getAttribute("aria-label");
  if (a && a.trim()) return a.trim();
  var lb = el.getAttribute && el.getAttribute("aria-labelledby");
  if (lb) {
    var ref = document.getElementById(lb.split(/\s+/)[0]);
    if (ref) return _txt(ref);
  }
  return _txt(el);
}
function _controls() {
  var sel = 'button, a, [role="button"], [role="link"], [role="tab"]';
  return Array.prototype.slice.call(document.querySelectorAll(sel));
}
function _box(el) {
  var r = el.getBoundingClientRect();
  return {x: r.x, y: r.y, width: r.width, height: r.height};
}
`

// jsResolveHelper provides _resolve(label) — the single ordered strategy
// list every tab lookup goes through. First non-empty candidate set wins,
// first element of that set is returned.
const jsResolveHelper = `
function _resolve(label) {
  var want = _fold(label);
  var slug = _slug(label);
  var ctrls = _controls();
  var i, el;

  // 1. Accessible name, exact full-string match, case-insensitive.
  for (i = 0; i < ctrls.length; i++) {
    el = ctrls[i];
    if (_fold(_accName(el)) === want) {
      return {index: i, strategy: "role-name", el: el};
    }
  }

  // 2. Text content containing the label as a fragment.
  for (i = 0; i < ctrls.length; i++) {
    el = ctrls[i];
    if (_fold(_txt(el)).indexOf(want) !== -1) {
      return {index: i, strategy: "text-fragment", el: el};
    }
  }

  // 3. Normalized data-tab attribute.
  var byAttr = document.querySelector('[data-tab="' + slug + '"]');
  if (byAttr) {
    var idx = ctrls.indexOf(byAttr);
    return {index: idx, strategy: "data-tab", el: byAttr};
  }

  return null;
}
`

// jsPanesHelper provides _panes(cls) — pane-set enumeration for the
// single-visible-pane invariant. Marker classes count as hidden even when
// the computed style has not settled yet.
const jsPanesHelper = `
function _paneHidden(el) {
  if (!_vis(el)) return true;
  var cl = el.classList;
  return cl.contains("hidden") || cl.contains("d-none") || cl.contains("is-hidden");
}
function _paneID(el) {
  if (el.id) return el.id;
  var dt = el.getAttribute("data-tab");
  if (dt) return dt;
  var h = el.querySelector("h1,h2,h3,h4");
  if (h) return _txt(h);
  return "";
}
function _panes(cls) {
  var list = Array.prototype.slice.call(document.querySelectorAll("." + cls));
  var visible = [];
  for (var i = 0; i < list.length; i++) {
    if (!_paneHidden(list[i])) visible.push(_paneID(list[i]));
  }
  return {total: list.length, visible: visible.length, visible_ids: visible};
}
`

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func buildIIFE(async bool, body string) string {
	prefix := "(function(){\n"
	if async {
		prefix = "(async function(){\n"
	}
	return prefix + `try {
` + body + `
} catch (err) {
return JSON.stringify({ok:false,error_code:"` + CodeEvalFailure + `",error_message:String(err && err.message || err)});
}
})()`
}

func wrapJSEval(body string) string      { return buildIIFE(false, body) }
func wrapJSEvalAsync(body string) string { return buildIIFE(true, body) }
