package cdpprobe

import "fmt"

// jsResolve looks up a control for the label without side effects.
// NotFound comes back as ok:true with found:false so callers can decide
// whether a missing control is fatal.
func jsResolve(lbl string) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+jsResolveHelper+`
var hit = _resolve(%s);
if (!hit) return JSON.stringify({ok:true,data:{found:false}});
return JSON.stringify({ok:true,data:{
  found: true,
  index: hit.index,
  strategy: hit.strategy,
  tag: hit.el.tagName.toLowerCase(),
  text: _txt(hit.el),
  box: _box(hit.el),
  visible: _vis(hit.el)
}});
`, jsString(lbl)))
}
