package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/pubmap/pkg/sources"
)

func TestList(t *testing.T) {
	infos := List()
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
		assert.NotEmpty(t, info.Description, info.ID)
	}
	assert.Equal(t, []string{string(sources.FileID), string(sources.ScholarID), string(sources.SerpAPIID)}, ids)
}
