// Package render builds the markup of the status update composer: the
// composer fragment itself, the host page it is injected into, link blocks
// attached to messages, and the list entries shown after a submission.
package render

import (
	"bytes"
	"fmt"
	"html/template"
)

func execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}
