package scanner

// Wire shapes of the DLP v2 content:inspect call, in its JSON field naming.
// Likelihoods travel as their enum names; int64 offsets travel as strings.

// InspectRequest is the body of projects.content.inspect plus its parent.
type InspectRequest struct {
	Parent        string        `json:"-"`
	InspectConfig InspectConfig `json:"inspectConfig"`
	Item          ContentItem   `json:"item"`
}

type InspectConfig struct {
	InfoTypes       []InfoType       `json:"infoTypes,omitempty"`
	CustomInfoTypes []CustomInfoType `json:"customInfoTypes,omitempty"`
	MinLikelihood   string           `json:"minLikelihood,omitempty"`
	IncludeQuote    bool             `json:"includeQuote,omitempty"`
	Limits          *FindingLimits   `json:"limits,omitempty"`
}

type InfoType struct {
	Name string `json:"name"`
}

type CustomInfoType struct {
	InfoType   InfoType `json:"infoType"`
	Regex      *Regex   `json:"regex,omitempty"`
	Likelihood string   `json:"likelihood,omitempty"`
}

type Regex struct {
	Pattern string `json:"pattern"`
}

type FindingLimits struct {
	MaxFindingsPerRequest int `json:"maxFindingsPerRequest,omitempty"`
}

type ContentItem struct {
	Value string `json:"value"`
}

// InspectResponse is the body returned by content:inspect.
type InspectResponse struct {
	Result InspectResult `json:"result"`
}

type InspectResult struct {
	Findings          []InspectFinding `json:"findings,omitempty"`
	FindingsTruncated bool             `json:"findingsTruncated,omitempty"`
}

type InspectFinding struct {
	Quote      string           `json:"quote,omitempty"`
	InfoType   InfoType         `json:"infoType"`
	Likelihood string           `json:"likelihood,omitempty"`
	Location   *FindingLocation `json:"location,omitempty"`
	CreateTime string           `json:"createTime,omitempty"`
}

type FindingLocation struct {
	ByteRange *Range `json:"byteRange,omitempty"`
}

type Range struct {
	Start int64 `json:"start,string,omitempty"`
	End   int64 `json:"end,string,omitempty"`
}
