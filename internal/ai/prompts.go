package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	Analyze     string
	CoverLetter string
	Refine      string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	Analyze     string
	CoverLetter string
	Refine      string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Analyze: `You are an expert career coach and HR analyst. Your core principles are:

- Base every observation on what is actually present in the resume and job description
- Never invent skills, experience, or requirements that do not appear in the source material
- Be direct about gaps; vague encouragement helps nobody
- Keep the output scannable: short sections, concrete bullet points

Your expertise includes:
- Resume-to-role alignment assessment
- ATS (Applicant Tracking System) keyword analysis
- Hiring practices across technical and non-technical roles`,

	CoverLetter: `You are an expert cover letter writer with a strict commitment to authenticity. Your role is to:

- Write in a confident, professional voice without cliches or filler
- Connect the candidate's actual experience to the employer's stated needs
- Never claim skills or achievements absent from the resume
- Keep the letter concise: three to four paragraphs, ready to send`,

	Refine: `You are an expert resume writer specializing in ATS optimization. Your core principles are:

- Every piece of information must be directly traceable to the original resume
- Incorporate a job description keyword only when the matching skill or experience genuinely exists
- Use standard section headings and plain formatting that parsers handle reliably
- Prefer strong action verbs and quantified impact where the source provides numbers`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Analyze: `Please analyze how well the provided resume aligns with the job description.

**Structure your response exactly as follows:**

**Alignment Summary**
A short paragraph on overall fit for the role.

**Strengths**
* Bullet points naming the resume's strongest matches against the job requirements.

**Gaps**
* Bullet points naming requirements from the job description that the resume does not demonstrate.

**Keyword Suggestions**
* Bullet points listing job-description keywords the candidate legitimately could surface more prominently.

Use blank lines between sections, bold section headings, and "*" bullets only.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	CoverLetter: `Please write a tailored cover letter for the candidate described by the resume, applying to the role in the job description.

**Requirements:**

1. Three to four paragraphs, professional but warm in tone.
2. Open by naming the role and why the candidate is a strong fit.
3. Support the fit claim with one or two concrete examples taken from the resume.
4. Close with a brief, confident call to action.
5. Do not invent employers, titles, dates, or achievements that are not in the resume.
6. Return only the letter body, ready to paste, with no commentary before or after.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	Refine: `Please rewrite the provided resume so it is optimized for Applicant Tracking Systems screening against the job description.

**Requirements:**

1. Keep every employer, title, and date exactly as given; never fabricate experience.
2. Reword bullet points to mirror the job description's terminology wherever the underlying skill or experience actually exists in the resume.
3. Use conventional section headings (Summary, Experience, Skills, Education) and plain text formatting.
4. Lead bullets with action verbs; keep quantified results from the original.
5. Return only the rewritten resume text, with no commentary before or after.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,
}

// PromptConfig bundles the system and user prompt sets so callers can
// serialize or override them together.
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the built-in prompt set.
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
