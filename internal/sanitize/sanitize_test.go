package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML(t *testing.T) {
	s := New()

	out := s.HTML(`<p onclick="steal()">Hello <b>world</b></p><script>alert(1)</script>`)
	assert.Contains(t, out, "<p>Hello <b>world</b></p>")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
}

func TestText(t *testing.T) {
	s := New()

	assert.Equal(t, "Nice article", s.Text(" <em>Nice</em> article "))
	assert.Equal(t, "", s.Text("<script>alert(1)</script>"))
	assert.Equal(t, "Arts & Culture", s.Text("Arts & Culture"))
	assert.Equal(t, "Rock 'n' Roll", s.Text("<i>Rock 'n' Roll</i>"))
	assert.Equal(t, `"Quoted" <news>`, s.Text(`&quot;Quoted&quot; &lt;news&gt;`))
}
