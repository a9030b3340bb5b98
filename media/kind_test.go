package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want Kind
	}{
		{"video/mp4", KindVideo},
		{"Video/WebM", KindVideo},
		{"video/mp4; codecs=avc1", KindVideo},
		{"audio/mpeg", KindAudio},
		{"application/vnd.yuffin-image-archive", KindNestedArchive},
		{"application/octet-stream", KindUnsupported},
		{"", KindUnsupported},
		{"videos/mp4", KindUnsupported},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.mime), tt.mime)
	}

	assert.True(t, KindVideo.Playable())
	assert.True(t, KindAudio.Playable())
	assert.False(t, KindNestedArchive.Playable())
	assert.Equal(t, "archive", KindNestedArchive.String())
}
