package cdpprobe

import "fmt"

// jsPaneState snapshots the pane set for the invariant check.
func jsPaneState(paneClass string) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+jsPanesHelper+`
var p = _panes(%s);
return JSON.stringify({ok:true,data:p});
`, jsString(paneClass)))
}

// jsLockedMessageVisible reports whether an access-denied style message is
// on screen. Lower-privileged roles hitting a restricted tab are expected
// to land here rather than on the restricted pane.
func jsLockedMessageVisible() string {
	return wrapJSEval(jsDOMHelpers + `
var pat = /(locked|owner only|not authorized|access denied|upgrade required)/i;
var all = document.querySelectorAll("div, p, span, section, h1, h2, h3");
for (var i = 0; i < all.length; i++) {
  var el = all[i];
  if (pat.test(_txt(el)) && _vis(el) && _txt(el).length < 200) {
    return JSON.stringify({ok:true,data:{visible:true,text:_txt(el)}});
  }
}
return JSON.stringify({ok:true,data:{visible:false}});
`)
}

// jsSaveFeedbackVisible reports whether the panel is showing save feedback.
// The app flashes a transient "Saving…" and then settles on a "Last updated"
// line; either one counts, and the settled text is what callers poll for.
func jsSaveFeedbackVisible() string {
	return wrapJSEval(jsDOMHelpers + `
var settled = /last updated/i;
var transient = /saving(…|\.\.\.)?/i;
var all = document.querySelectorAll("div, p, span, small, em");
for (var i = 0; i < all.length; i++) {
  var el = all[i];
  var txt = _txt(el);
  if (txt.length >= 200 || !_vis(el)) continue;
  if (settled.test(txt)) {
    return JSON.stringify({ok:true,data:{visible:true,settled:true,text:txt}});
  }
  if (transient.test(txt)) {
    return JSON.stringify({ok:true,data:{visible:true,settled:false,text:txt}});
  }
}
return JSON.stringify({ok:true,data:{visible:false}});
`)
}

// jsToggleFirstCheckbox flips the first checkbox inside the sole visible
// pane and reports its new state. Used by the Ops save-path scenario.
func jsToggleFirstCheckbox(paneClass string) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+jsPanesHelper+`
var cls = %s;
var list = document.querySelectorAll("." + cls);
var pane = null;
for (var i = 0; i < list.length; i++) {
  if (!_paneHidden(list[i])) { pane = list[i]; break; }
}
var scope = pane || document;
var box = scope.querySelector('input[type="checkbox"]');
if (!box) return JSON.stringify({ok:true,data:{found:false}});
try { box.scrollIntoView({block: "center"}); } catch (_) {}
box.click();
return JSON.stringify({ok:true,data:{found:true,checked:box.checked}});
`, jsString(paneClass)))
}
