package cdpprobe

import "fmt"

// jsResolveAndClick resolves the label and dispatches a plain element click
// in a single eval so the handle cannot go stale between the two steps.
// covered=true means the element's center is occluded by another node, in
// which case the caller retries once with a trusted CDP click at the center.
func jsResolveAndClick(lbl string) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+jsResolveHelper+`
var hit = _resolve(%s);
if (!hit) return JSON.stringify({ok:true,data:{found:false}});
var b = _box(hit.el);
var cx = b.x + b.width / 2;
var cy = b.y + b.height / 2;
var covered = false;
var atPoint = document.elementFromPoint(cx, cy);
if (atPoint && atPoint !== hit.el && !hit.el.contains(atPoint) && !atPoint.contains(hit.el)) {
  covered = true;
}
try { hit.el.scrollIntoView({block: "center"}); } catch (_) {}
hit.el.click();
return JSON.stringify({ok:true,data:{
  found: true,
  index: hit.index,
  strategy: hit.strategy,
  covered: covered,
  box: _box(hit.el)
}});
`, jsString(lbl)))
}

// jsActivationSignal samples the three activation signals once: hash moved
// off before, the control reports selected/current, or the pane set has
// stabilized to exactly one visible member. The Go side polls this within
// the bounded activation wait and accepts whichever fires first.
func jsActivationSignal(lbl, hashBefore, paneClass string) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+jsResolveHelper+jsPanesHelper+`
var before = %s;
var hash = String(location.hash || "");
if (hash !== before) return JSON.stringify({ok:true,data:{signal:"hash",hash:hash}});

var hit = _resolve(%s);
if (hit) {
  var sel = hit.el.getAttribute("aria-selected");
  var cur = hit.el.getAttribute("aria-current");
  if (sel === "true" || (cur && cur !== "false")) {
    return JSON.stringify({ok:true,data:{signal:"aria",hash:hash}});
  }
}

var p = _panes(%s);
if (p.total > 0 && p.visible === 1) {
  return JSON.stringify({ok:true,data:{signal:"pane",hash:hash}});
}

return JSON.stringify({ok:true,data:{signal:"none",hash:hash}});
`, jsString(hashBefore), jsString(lbl), jsString(paneClass)))
}
