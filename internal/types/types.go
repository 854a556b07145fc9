package types

// AlignmentInput carries the two documents every operation works from.
type AlignmentInput struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

// AnalyzeOutput is the alignment analysis for a resume against a job
// description. Analysis is markdown-ish text produced by the model.
type AnalyzeOutput struct {
	Analysis string `json:"analysis"`
}

// CoverLetterOutput is a drafted cover letter for the given job.
type CoverLetterOutput struct {
	CoverLetter string `json:"coverLetter"`
}

// RefineOutput is the ATS-optimized rewrite of the resume.
type RefineOutput struct {
	RefinedResume string `json:"refinedResume"`
}

// ExtractedDocument is the plain text pulled out of an uploaded file.
type ExtractedDocument struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}
