package cajaclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string `json:"id"`
}

func TestDecodePage_Formas(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		shape   PageShape
		ids     []string
		count   int
		hasNext bool
	}{
		{"array", `[{"id":"a"},{"id":"b"}]`, ShapeList, []string{"a", "b"}, 2, false},
		{"counted", `{"count":1,"turnos":[{"id":"a"}]}`, ShapeCounted, []string{"a"}, 1, false},
		{"paginated", `{"count":45,"next":3,"previous":1,"results":[{"id":"x"}]}`, ShapePaginated, []string{"x"}, 45, true},
		{"paginated url", `{"count":2,"next":null,"previous":"http://api/?page=1","results":[{"id":"x"},{"id":"y"}]}`, ShapePaginated, []string{"x", "y"}, 2, false},
		{"empty", `{"count":0,"turnos":[]}`, ShapeCounted, []string{}, 0, false},
		{"null list", `{"count":0,"turnos":null}`, ShapeCounted, []string{}, 0, false},
		{"no count", ` {"turnos":[{"id":"a"}]}`, ShapeCounted, []string{"a"}, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DecodePage[item]([]byte(tc.raw), "turnos")
			require.NoError(t, err)
			assert.Equal(t, tc.shape, p.Shape)
			assert.Equal(t, tc.count, p.Count)
			assert.Equal(t, tc.hasNext, p.HasNext)
			require.NotNil(t, p.Items)
			ids := make([]string, len(p.Items))
			for i, it := range p.Items {
				ids[i] = it.ID
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestDecodePage_Invalido(t *testing.T) {
	for _, raw := range []string{``, `{"count":1}`, `"texto"`, `{"count":"x","turnos":[]}`, `[1,2]`} {
		_, err := DecodePage[item]([]byte(raw), "turnos")
		assert.Error(t, err, raw)
	}
}

func TestDecodePage_PreviousPresente(t *testing.T) {
	p, err := DecodePage[item]([]byte(`{"count":30,"next":null,"previous":1,"results":[]}`), "")
	require.NoError(t, err)
	assert.True(t, p.HasPrevious)
	assert.False(t, p.HasNext)
	assert.Equal(t, "paginated", p.Shape.String())
}
