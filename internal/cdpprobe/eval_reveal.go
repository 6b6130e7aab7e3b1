package cdpprobe

import "fmt"

// jsRevealStep clicks the next plausible menu/hamburger control and reports
// whether the label became visible. Candidates, in confidence order:
// accessible name matching menu|navigation|open|tabs, aria-label containing
// "menu", a [data-testid=menu] control, then any button whose only content
// is an icon. One candidate per eval; the Go side loops so each click gets a
// settle interval before the visibility re-check.
func jsRevealStep(lbl string, attempt int) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+`
var want = _fold(%s);
var attempt = %d;

function _labelVisible() {
  var all = document.querySelectorAll("button, a, [role], span, div, li");
  for (var i = 0; i < all.length; i++) {
    if (_fold(_txt(all[i])) === want && _vis(all[i])) return true;
  }
  return false;
}

if (_labelVisible()) return JSON.stringify({ok:true,data:{visible:true,clicked:false}});

var namePat = /(menu|navigation|open|tabs)/i;
var candidates = [];
var ctrls = _controls();
var i, el;
for (i = 0; i < ctrls.length; i++) {
  el = ctrls[i];
  if (_vis(el) && namePat.test(_accName(el))) candidates.push(el);
}
for (i = 0; i < ctrls.length; i++) {
  el = ctrls[i];
  var al = el.getAttribute("aria-label") || "";
  if (_vis(el) && al.toLowerCase().indexOf("menu") !== -1 && candidates.indexOf(el) === -1) {
    candidates.push(el);
  }
}
var byTestID = document.querySelector('[data-testid="menu"]');
if (byTestID && _vis(byTestID) && candidates.indexOf(byTestID) === -1) candidates.push(byTestID);
// Last resort: icon-only buttons.
var btns = document.querySelectorAll("button");
for (i = 0; i < btns.length; i++) {
  el = btns[i];
  if (_vis(el) && !_txt(el) && el.querySelector("svg, img, i") && candidates.indexOf(el) === -1) {
    candidates.push(el);
  }
}

if (attempt >= candidates.length) {
  return JSON.stringify({ok:true,data:{visible:false,clicked:false,exhausted:true}});
}
candidates[attempt].click();
return JSON.stringify({ok:true,data:{visible:_labelVisible(),clicked:true}});
`, jsString(lbl), attempt))
}
