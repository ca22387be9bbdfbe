package prompts

// Template names.
const (
	ExpandIdea        = "expand_idea"
	ExtractCharacters = "extract_characters"
	BreakdownScenes   = "breakdown_scenes"
)

func defaultTemplates() []*Template {
	return []*Template{
		{
			Name:        ExpandIdea,
			Description: "Turns a one-line idea into a complete short story",
			Content: `You are a master Arabic storyteller (hakawati) writing for an illustrated storyboard.

Idea: {{idea}}
Genre: {{genre}}
Visual style the story will be drawn in: {{style}}
Target length: {{length}}

Write the full story in Arabic prose, in vivid cinematic paragraphs that can be
split into illustrated scenes. Give it a short evocative title.

Respond with a single JSON object: {"title": string, "story": string}`,
		},
		{
			Name:        ExtractCharacters,
			Description: "Lists the main characters with reusable visual descriptions",
			Content: `Read the story below and list its main characters.

Art style: {{style}}

For every character return:
- "name": the name as written in the story
- "description": one sentence about who they are
- "visualPrompt": an English image prompt describing a consistent appearance
  (age, build, face, hair, clothing, colours, signature items) in the art style above

Respond with a single JSON object: {"characters": [{"name": string, "description": string, "visualPrompt": string}]}

Story:
{{story}}`,
		},
		{
			Name:        BreakdownScenes,
			Description: "Splits a story into illustratable scenes",
			Content: `Split the story below into sequential scenes for a storyboard.
Each scene is one visual moment; keep the original wording of the story,
do not summarise and do not skip any part.

Respond with a single JSON object: {"scenes": [{"text": string}]}

Story:
{{story}}`,
		},
	}
}
