package genai

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

const canvasPrompt = `Create a single square image arranged as a 2x2 grid showing the exact same product from four different angles:
- Top-left: front view, straight on
- Top-right: right side view, rotated 90 degrees
- Bottom-left: back view, rotated 180 degrees
- Bottom-right: left side view, rotated 270 degrees

Keep the product identical across all four views: same colors, same textures, same branding, same proportions. Pure white background (#FFFFFF) in every quadrant, soft even studio lighting, no text, no grid lines, no borders between quadrants. The four views must look like photographs of one physical object rotated on a turntable.`

var quadrantDescriptions = map[domain.Position]string{
	domain.PositionTopLeft:     "top-left quadrant (the front view)",
	domain.PositionTopRight:    "top-right quadrant (the right side view)",
	domain.PositionBottomLeft:  "bottom-left quadrant (the back view)",
	domain.PositionBottomRight: "bottom-right quadrant (the left side view)",
}

func quadrantPrompt(position domain.Position) string {
	desc, ok := quadrantDescriptions[position]
	if !ok {
		desc = fmt.Sprintf("%s quadrant", strings.ReplaceAll(string(position), "-", " "))
	}
	return fmt.Sprintf(`The provided image is a 2x2 grid showing one product from four angles. Reproduce only the %s as a standalone square image. Preserve the product exactly as shown in that quadrant: same angle, same colors, same details, pure white background. Do not include any part of the other quadrants.`, desc)
}
