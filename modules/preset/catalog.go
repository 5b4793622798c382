package preset

import (
	"strings"
)

// SubjectPlaceholder - 템플릿 안의 subject 자리
const SubjectPlaceholder = "{{subject}}"

// Preset - 이름이 붙은 편집 의도
type Preset struct {
	Name           string `json:"name"`
	Brief          string `json:"brief"`
	PromptTemplate string `json:"-"`
	DefaultSubject string `json:"-"`
}

// outputRules - 모든 preset 공통 출력 규칙
const outputRules = `

Output rules:
- Reply with ONE ready-to-use English editing instruction for the FLUX.1 Kontext image model, nothing else.
- Name the subject directly (for example "the woman in the red coat"), never use pronouns like "it" or "her".
- Use exact color names and concrete materials taken from what you see in the image.
- End with an explicit preservation clause: keep the identity, pose, composition and everything not mentioned unchanged.
- Stay under 512 tokens.`

var catalog = []Preset{
	{
		Name:  "Zoom",
		Brief: "Zoom in on the main subject",
		PromptTemplate: "Look at the reference image and write an editing instruction that zooms in on " + SubjectPlaceholder +
			". Describe the new tighter framing (close-up or medium close-up), what remains visible at the edges, and the level of detail that should become visible on the subject's surface, textures and lighting." + outputRules,
		DefaultSubject: "the main subject (automatically identify the main subject of the image and zoom in on it)",
	},
	{
		Name:  "Zoom Out",
		Brief: "Reveal more of the surrounding scene",
		PromptTemplate: "Look at the reference image and write an editing instruction that zooms out from " + SubjectPlaceholder +
			". Describe the wider framing and invent a plausible surrounding environment that matches the existing perspective, lighting direction and color palette." + outputRules,
		DefaultSubject: "the main subject (automatically identify the main subject of the image)",
	},
	{
		Name:  "Background Change",
		Brief: "Replace the background, keep the subject",
		PromptTemplate: "Look at the reference image and write an editing instruction that replaces the background behind " + SubjectPlaceholder +
			" with a fitting new setting. Name the new setting concretely and describe how the light on the subject must match it." + outputRules,
		DefaultSubject: "the main subject (automatically identify the main subject of the image)",
	},
	{
		Name:  "Relight",
		Brief: "Change the lighting and mood",
		PromptTemplate: "Look at the reference image and write an editing instruction that relights " + SubjectPlaceholder +
			" with dramatic, cinematic lighting. Specify the light direction, color temperature and shadow hardness." + outputRules,
		DefaultSubject: "the scene (automatically identify the main subject of the image)",
	},
	{
		Name:  "Style Transfer",
		Brief: "Re-render in an art style",
		PromptTemplate: "Look at the reference image and write an editing instruction that converts " + SubjectPlaceholder +
			" into a clearly named art style (for example watercolor, 1970s film photo, or cel-shaded animation). Describe the brushwork or rendering characteristics precisely." + outputRules,
		DefaultSubject: "the whole image (automatically identify the main subject of the image)",
	},
	{
		Name:  "Remove Object",
		Brief: "Remove a distracting element",
		PromptTemplate: "Look at the reference image and write an editing instruction that removes " + SubjectPlaceholder +
			" and fills the area naturally with the surrounding background." + outputRules,
		DefaultSubject: "the most distracting secondary object (automatically identify it in the image)",
	},
}

var byName = func() map[string]Preset {
	m := make(map[string]Preset, len(catalog))
	for _, p := range catalog {
		m[p.Name] = p
	}
	return m
}()

// GetByName - 정확히(대소문자 구분) 일치하는 preset
func GetByName(name string) (Preset, bool) {
	p, ok := byName[name]
	return p, ok
}

// List - 전체 preset (순서 고정, 복사본)
func List() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// BuildPrompt - subject 를 채운 LLM 요청문. subject 가 비어 있으면 기본 문구
func BuildPrompt(p Preset, subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = p.DefaultSubject
	}
	return strings.ReplaceAll(p.PromptTemplate, SubjectPlaceholder, subject)
}
