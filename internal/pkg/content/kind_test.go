package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromLocator(t *testing.T) {
	tests := []struct {
		locator string
		want    Kind
	}{
		{"s3://notes/physics/kinematics.pdf", KindDocument},
		{"https://cdn.example.com/lectures/l1.MP4?sig=abc", KindVideo},
		{"https://cdn.example.com/lectures/l1.webm#t=10", KindVideo},
		{"s3:///audio/revision.m4a", KindAudio},
		{"https://cdn.example.com/diagram.webp", KindImage},
		{"https://docs.google.com/document/d/abc/edit", KindExternal},
		{"", KindExternal},
	}
	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			assert.Equal(t, tt.want, KindFromLocator(tt.locator))
		})
	}
}
