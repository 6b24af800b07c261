package app

import (
	"fmt"

	"dreamweaver/pkg/domain"
)

// Flavors are the atmospheric tokens mixed into each story prompt so repeated
// requests do not read alike.
var Flavors = []string{
	"shimmering mist",
	"golden light",
	"silver threads",
	"crystal formations",
	"floating petals",
	"whispered secrets",
	"ancient melodies",
	"dancing shadows",
	"starlight paths",
	"rainbow bridges",
}

// PreviewImages are the static illustrations attached to every dream.
var PreviewImages = []string{
	"https://images.unsplash.com/photo-1518837695005-2083093ee35b?w=400&h=300&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=400&h=300&fit=crop&crop=center",
	"https://images.unsplash.com/photo-1419242902214-272b3f66ee7a?w=400&h=300&fit=crop&crop=center",
}

const storySystemPrompt = "You write gentle, immersive bedtime stories in the second person."

func storyPrompt(req domain.DreamRequest, flavor string, token int64) string {
	return fmt.Sprintf(`Dream story #%d.

Tell a dream-like bedtime story in which the listener ("you") drifts into a surreal %s wrapped in a strong sense of %s.
Along the way you meet %s and come upon %s. Let %s colour the air around every scene.

Keep the voice soft, poetic and slightly strange, the way lucid dreams feel. Lean on sights, sounds and textures.

Shape it as:
Title: "<a short title>"
- **Chapter 1: Arrival in the %s**
- **Chapter 2: Meeting %s**
- **Chapter 3: Finding %s**
- **Chapter 4: What It Meant**

Close with a quiet message from the subconscious. Surprise the reader with at least one detail they would not expect.
Aim for 500 to 700 words.`,
		token,
		req.Setting, req.Emotion,
		req.Characters, req.MagicalElement, flavor,
		req.Setting, req.Characters, req.MagicalElement,
	)
}

const reflectionSystemPrompt = "You turn short dream notes into lyrical journal entries."

func reflectionPrompt(reflection string) string {
	return fmt.Sprintf(`Here is what someone felt after a dream:

%q

Rewrite it as a journal entry of two or three short paragraphs. Keep their feelings and details, add gentle dream imagery, and write in the first person.`, reflection)
}
