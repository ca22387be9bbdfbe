package models

// AppStep is the screen the studio front end should show.
type AppStep string

const (
	StepAuth          AppStep = "AUTH"
	StepSetup         AppStep = "SETUP"
	StepIdeaGenerator AppStep = "IDEA_GENERATOR"
	StepStoryPreview  AppStep = "STORY_PREVIEW"
	StepInputStory    AppStep = "INPUT_STORY"
	StepGallery       AppStep = "GALLERY"
)
