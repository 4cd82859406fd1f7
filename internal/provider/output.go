package provider

import (
	"fmt"
	"path"
	"strings"

	"github.com/artboardhq/artboard/internal/domain"
)

// ImageOutput formats the canonical success message for generated images:
// one markdown image link per artifact, preceded by a short sentence. The
// normalizer downstream extracts the link targets.
func ImageOutput(urls ...string) domain.ToolOutput {
	links := make([]string, 0, len(urls))
	for _, u := range urls {
		links = append(links, fmt.Sprintf("![image_id: %s](%s)", path.Base(strings.Split(u, "?")[0]), u))
	}
	return domain.PlainText("image generated successfully " + strings.Join(links, " "))
}

// VideoOutput formats the canonical success message for a generated video.
func VideoOutput(url string) domain.ToolOutput {
	return domain.PlainText(fmt.Sprintf("video generated successfully ![video_id: %s](%s)",
		path.Base(strings.Split(url, "?")[0]), url))
}
