package cdpprobe

import "fmt"

// jsReadiness samples the readiness facts once. Two-tier policy: when the
// configured app-root selector exists it must be visible; otherwise the body
// must contain at least one non-whitespace character, so a blank white
// screen never counts as ready. Computed fresh on each call, never cached.
func jsReadiness(rootSelector string) string {
	return wrapJSEval(fmt.Sprintf(jsDOMHelpers+`
var root = null;
try { root = document.querySelector(%s); } catch (_) {}
var bodyText = document.body ? String(document.body.textContent || "") : "";
return JSON.stringify({ok:true,data:{
  root_present: !!root,
  root_visible: root ? _vis(root) : false,
  body_has_text: /\S/.test(bodyText)
}});
`, jsString(rootSelector)))
}

// jsHash reads the current URL fragment identifier.
func jsHash() string {
	return wrapJSEval(`
return JSON.stringify({ok:true,data:{hash: String(location.hash || "")}});
`)
}
