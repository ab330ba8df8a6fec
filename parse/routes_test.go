package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kltransit.dev/nextbus/storage"
)

func TestParseRoutes(t *testing.T) {
	store := storage.NewMemoryStore()
	writer, err := store.GetWriter("test")
	require.NoError(t, err)

	routes, err := ParseRoutes(writer, bytes.NewBufferString(`
route_id,agency_id,route_short_name,route_long_name
U851, rapidkl ,851,Pasar Seni - Seksyen 2 Shah Alam
T786,rapidkl,T786,Ara Damansara feeder`))
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"U851": true, "T786": true}, routes)

	reader, err := store.GetReader("test")
	require.NoError(t, err)
	got, err := reader.Routes()
	require.NoError(t, err)
	assert.Equal(t, 2, len(got))
}

func TestParseRoutesErrors(t *testing.T) {
	for name, content := range map[string]string{
		"missing route_id": `
route_id,route_short_name
,851`,
		"repeated route_id": `
route_id,route_short_name
U851,851
U851,851x`,
		"no name at all": `
route_id,route_short_name,route_long_name
U851,,`,
	} {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			writer, err := store.GetWriter("test")
			require.NoError(t, err)

			_, err = ParseRoutes(writer, bytes.NewBufferString(content))
			assert.Error(t, err)
		})
	}
}
