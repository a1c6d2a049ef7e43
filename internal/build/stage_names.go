package build

// StageName is the typed identifier of a build stage.
type StageName string

const (
	StageLoadLayouts StageName = "load_layouts"
	StageDiscover    StageName = "discover"
	StagePlanOutputs StageName = "plan_outputs"
	StageRender      StageName = "render"
	StagePassthrough StageName = "passthrough"
	StageFeeds       StageName = "feeds"
	StagePromote     StageName = "promote"
)
