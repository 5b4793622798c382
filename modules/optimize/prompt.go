package optimize

import (
	"fmt"
	"strings"
)

// TemplateKind - 프롬프트 템플릿 종류
type TemplateKind string

const (
	TemplateTextToImage TemplateKind = "text-to-image"
	TemplateEditText    TemplateKind = "edit-text"
	TemplateSingleImage TemplateKind = "single-image"
	TemplateMultiImage  TemplateKind = "multi-image"
	TemplatePreset      TemplateKind = "preset"
)

// Template - system prompt + user 메시지 래퍼 (%s 자리에 사용자 지시문)
type Template struct {
	Kind   TemplateKind
	System string
	User   string
}

// Fill - 사용자 지시문을 user 래퍼에 채움
func (t Template) Fill(instruction string) string {
	if !strings.Contains(t.User, "%s") {
		return t.User
	}
	return fmt.Sprintf(t.User, instruction)
}

// UsesImages - 이미지 분석 템플릿인지
func (t Template) UsesImages() bool {
	return t.Kind == TemplateSingleImage || t.Kind == TemplateMultiImage || t.Kind == TemplatePreset
}

// IsTextToImageModel - 모델 id 에 text-to-image 포함 여부
func IsTextToImageModel(model string) bool {
	return strings.Contains(model, "text-to-image")
}

// Select - (text-to-image 여부, 이미지 수, preset 여부) → 템플릿. 순수 함수
func Select(isTextToImage bool, imageCount int, usePreset bool) Template {
	switch {
	case usePreset:
		return presetTemplate
	case imageCount > 1:
		return multiImageTemplate
	case imageCount == 1:
		return singleImageTemplate
	case isTextToImage:
		return textToImageTemplate
	default:
		return editTextTemplate
	}
}

// Kontext 편집 공통 원칙
const editingPrinciples = `KONTEXT EDITING PRINCIPLES:
- Use specific, precise language with exact color names and clear verbs
- Preserve important elements by explicitly stating what should remain unchanged
- Name subjects directly instead of using pronouns ("the woman with black hair", not "she")
- For character consistency add "while maintaining the same facial features, eye color, and facial expression"
- For composition control add "keeping the exact same position, scale, pose, camera angle, and framing"
- Choose verbs carefully: "change the clothes" is controlled, "transform" implies a complete change
- For text edits use the form: Replace '[original text]' with '[new text]'
- For style changes name the exact style ("watercolor painting", "Bauhaus art style") and describe its visual characteristics
- Keep prompts under 512 tokens`

var singleImageTemplate = Template{
	Kind: TemplateSingleImage,
	User: `You are an expert at analyzing images and optimizing prompts for FLUX.1 Kontext image editing models.

` + editingPrinciples + `

VISUAL CUES:
- If boxes or markings are visible in the image, reference them directly ("add hats in the boxes")

User's instruction: "%s"

TASK: Analyze the uploaded image and create an optimized Kontext editing prompt.

ANALYSIS STEPS:
1. Identify the key subjects and elements with specific descriptors
2. Understand the user's editing intention
3. Decide what must be preserved and what must change
4. Check for visual cues that mark specific areas to edit
5. Apply the principles above for precision and control

OUTPUT: Optimized English prompt only (under 512 tokens), following Kontext best practices.`,
}

var multiImageTemplate = Template{
	Kind: TemplateMultiImage,
	User: `You are an expert at analyzing multiple images and optimizing prompts for FLUX.1 Kontext max-multi interactive image editing models.

KONTEXT MULTI-IMAGE PRINCIPLES:
- Analyze ALL images to find elements that can be combined or interact
- Multi-image editing takes elements from one image and integrates them into another
- Identify transferable elements (objects, patterns, textures, people) with natural descriptions ("the red apple", "the wooden texture")
- Specify the target location ("on the woman's dress", "as the background")
- Define the integration method ("as a repeating pattern", "overlaid on", "replacing the existing")
- Preserve the target image's composition while integrating the new elements
- Match lighting, scale, perspective and style for a realistic result
- Keep prompts under 512 tokens

User's instruction: "%s"

TASK: Analyze all uploaded images and create an optimized Kontext multi-image editing prompt.

EXAMPLE STRUCTURES:
- "Take the [element] and place it [location] while [preservation clause]"
- "Use the [pattern/texture] as [application method] on the [target]"
- "Integrate the [object] into the [scene] with [matching requirements]"

OUTPUT: Optimized English prompt only (under 512 tokens), following Kontext multi-image best practices.`,
}

var textToImageTemplate = Template{
	Kind: TemplateTextToImage,
	System: `You are an AI prompt optimizer for FLUX.1 Kontext text-to-image models.

KONTEXT TEXT-TO-IMAGE PRINCIPLES:
- Use specific, precise language with exact color names ("crimson red", "azure blue") and detailed descriptions
- Be specific about materials and textures ("weathered oak wood", "polished marble")
- Define clear spatial relationships ("in the foreground", "centered in the composition")
- Describe lighting quality ("soft diffused lighting", "golden hour sunlight"), atmosphere and mood
- Specify camera angle, composition and framing; add technical details (lens, depth of field) when useful
- Name exact styles and art movements and describe their visual characteristics
- Keep prompts under 512 tokens

OPTIMIZATION RULES:
1. Translate to English if needed
2. Expand basic descriptions into rich, detailed scenes
3. Add composition, lighting, color palette and atmosphere details

STRUCTURE: [Subject with specific descriptors] + [Action/Pose] + [Setting with details] + [Lighting] + [Style] + [Technical details] + [Mood]

Output: Optimized English prompt only (under 512 tokens), following Kontext text-to-image best practices.`,
	User: "Create a detailed text-to-image prompt from this description, applying Kontext precision principles for exact colors, specific materials, clear spatial relationships, and precise style specifications: %s",
}

var editTextTemplate = Template{
	Kind: TemplateEditText,
	System: `You are an AI prompt optimizer for FLUX.1 Kontext image editing models.

` + editingPrinciples + `

OPTIMIZATION RULES FOR IMAGE EDITING:
1. Translate to English if needed
2. Make the instruction complete and specific
3. Add preservation clauses for identity, subject position and composition
4. For complex edits suggest breaking them into sequential small edits

Output: Optimized English prompt only (under 512 tokens), following Kontext editing best practices.`,
	User: "Optimize this editing instruction following Kontext best practices: %s",
}

// presetTemplate - User 는 preset.BuildPrompt 결과를 그대로 사용
var presetTemplate = Template{
	Kind: TemplatePreset,
	User: "%s",
}
