/*
templates.go - The six report templates

PURPOSE:
  Static prompt templates, one per focus area. Selection is a total
  function over the closed enum; the orchestrator rejects unknown focus
  areas before this code runs. Each template body mandates a distinct
  report structure, then ends with the shared source-data block whose
  {{placeholder}} fields are substituted from the report Context.

  The template text itself is data, not logic. Changing wording needs no
  code changes elsewhere.
*/
package report

// SystemRole is the fixed system instruction sent with every generation.
const SystemRole = "You are a Board Certified Behavior Analyst (BCBA) and special education consultant " +
	"with expertise in autism spectrum disorder, ADHD, and evidence-based interventions. " +
	"You write clinical reports with professional ABA terminology, cite specific data points, " +
	"and provide actionable recommendations."

// Template is a selected report prompt.
type Template struct {
	Focus FocusArea
	Name  string
	Body  string
}

// SelectTemplate maps a focus area to its template. Total over the closed
// enum; unknown values fall back to comprehensive, matching the reference
// behavior of a default switch arm.
func SelectTemplate(fa FocusArea) Template {
	if tpl, ok := templates[fa]; ok {
		return tpl
	}
	return templates[FocusComprehensive]
}

var templates = map[FocusArea]Template{
	FocusComprehensive: {Focus: FocusComprehensive, Name: "Comprehensive Clinical Assessment", Body: comprehensiveBody},
	FocusBehavioral:    {Focus: FocusBehavioral, Name: "Functional Behavior Assessment", Body: behavioralBody},
	FocusSkill:         {Focus: FocusSkill, Name: "Skill Acquisition Analysis", Body: skillBody},
	FocusIntervention:  {Focus: FocusIntervention, Name: "Intervention Effectiveness Review", Body: interventionBody},
	FocusSensory:       {Focus: FocusSensory, Name: "Sensory & Physiological Assessment", Body: sensoryBody},
	FocusEnvironmental: {Focus: FocusEnvironmental, Name: "Environmental & Contextual Analysis", Body: environmentalBody},
}

const promptHeader = `**Student:** {{studentName}}, Age {{studentAge}}
**Family:** {{familyName}}
**Report Date:** {{reportDate}}

**CRITICAL REQUIREMENTS:**
- Use professional ABA terminology throughout
- Cite specific data points with dates, percentages, and n-values
- Avoid generalizations ("often," "sometimes") - use specific frequencies
- Format as Markdown with clear heading hierarchy
`

const promptDataBlock = `
---

**SOURCE DATA**

Documents analyzed: {{documentCount}} ({{documentTypes}})
Assessment period: {{dateRange}}

Document inventory:
{{documentList}}

{{metricsSummary}}

{{insightsSummary}}

Progress records in window: {{progressRecords}}

{{educatorSummary}}

{{sleepSummary}}
{{sleepCorrelationText}}
Behavioral incidents in window: {{incidentCount}}

---

## **Parent-Facing Summary: Key Takeaways & Action Steps**

Hi {{familyName}},

Close the report with a plain-language summary for {{studentName}}'s family:
strengths in 2-3 encouraging bullet points, the top 3 priorities with simple
reasons why each matters, and 2-3 practical strategies a parent can start
using today. End with one empowering sentence. Use warm, everyday language
and frame everything as "we" and "our plan".`

const comprehensiveBody = `You are conducting a comprehensive clinical assessment.

` + promptHeader + `
**Report Structure (MANDATORY):**

# Comprehensive Clinical Assessment Report

## Section I: Review of Progress
Analyze overall trajectory across all domains: areas of strength,
areas requiring continued focus, and the overall clinical impression.

## Section II: Analysis of Triggers & Behavioral Patterns
Synthesize behavioral patterns from incident logs: physiological states
(sleep quality, fatigue, illness), environmental factors, and behavioral
functions (escape, attention, sensory, tangible).

## Section III: Recommendations for Strategy Refinement
Proactive strategies, skill building priorities, consequence modifications.

## Section IV: Evaluation of Therapeutic Approach
Alignment with Positive Behavior Support and function-based intervention
fidelity.

## Section V: Conclusion & Profile Building Summary

## Section VI: Analysis of Missing Data
Identify specific data gaps that would strengthen the assessment.
` + promptDataBlock

const behavioralBody = `You are conducting a comprehensive Functional Behavior Assessment (FBA).

` + promptHeader + `
**CRITICAL INSTRUCTION:** Spend 80% of your analysis on behavioral triggers,
antecedent-behavior-consequence (ABC) patterns, and function-based
hypotheses. For every incident identify the antecedent, operationally
defined behavior, consequence, and hypothesized function.

**Report Structure (MANDATORY):**

# Functional Behavior Assessment Report

## Section I: ABC Analysis
For each identified behavioral pattern: antecedent, behavior
(operational definition), consequence, timeline with dates, frequency.

## Section II: Physiological Analysis
Analyze the sleep-behavior correlation: incidents following poor sleep
nights, with specific dates and correlation strength.

## Section III: Environmental Trigger Mapping
High-risk contexts with time-of-day, location, social, and activity data.

## Section IV: Function-Based Hypothesis
Evidence for escape, attention, sensory, and tangible functions; state the
primary hypothesis.

## Section V: Proactive Prevention Strategies
Antecedent modifications, replacement behaviors, accommodations.

## Section VI: Data Gaps
` + promptDataBlock

const skillBody = `You are an educational specialist conducting a skill acquisition analysis.

` + promptHeader + `
**CRITICAL INSTRUCTION:** Spend 80% of your analysis on skill development,
learning rates, mastery levels, and teaching effectiveness.

**Report Structure (MANDATORY):**

# Skill Acquisition & Progress Analysis

## Section I: Current Skill Mastery
Communication, social, academic, daily living, and motor skills, each
broken into acquired / in-progress / emerging / baseline with data.

## Section II: Learning Patterns & Rates
Acquisition speed, retention, prompting trajectories, learning style
patterns.

## Section III: Teaching Effectiveness Analysis
Effectiveness of each teaching method in use, with data citations.

## Section IV: Generalization & Maintenance

## Section V: Skill Building Priorities
Prioritize next targets by functional impact, prerequisites, student
motivation, and likelihood of success.

## Section VI: Missing Data
` + promptDataBlock

const interventionBody = `You are a clinical director conducting an intervention effectiveness review.

` + promptHeader + `
**CRITICAL INSTRUCTION:** Spend 80% of your analysis comparing and evaluating
current interventions with data-driven effectiveness ratings and
before/after metrics.

**Report Structure (MANDATORY):**

# Intervention Effectiveness Analysis

## Section I: Current Intervention Inventory
Proactive/antecedent, teaching/replacement, and consequence-based
interventions with operational definitions and implementers.

## Section II: Comparative Effectiveness Analysis
Per intervention: effectiveness rating, baseline vs current data, what is
working, and context-dependent results.

## Section III: Implementation Fidelity Analysis
High/moderate/low fidelity groupings with barriers.

## Section IV: Evidence-Based Practice Alignment

## Section V: Strategy Refinement Recommendations
Intensify, modify, introduce, or phase out - with data justification.

## Section VI: Data Gaps
` + promptDataBlock

const sensoryBody = `You are an occupational therapist and BCBA conducting a sensory and physiological assessment.

` + promptHeader + `
**CRITICAL INSTRUCTION:** Spend 80% of your analysis on sensory profile
development and the sleep-behavior correlation. Link poor sleep to
behavioral incidents and performance using specific percentages and dates.

**Report Structure (MANDATORY):**

# Sensory & Physiological Assessment

## Section I: Sensory Profile Analysis
Sensory seeking and avoidance across auditory, visual, tactile,
vestibular, and proprioceptive channels; regulation patterns.

## Section II: Physiological Monitoring & Analysis
Sleep quality distribution, night wakings, and the sleep-behavior
correlation with specific date-incident pairs.

## Section III: Arousal & Regulation Analysis
Baseline arousal, dysregulation triggers (sleep deprivation first),
current self-regulation strategies.

## Section IV: Environmental Sensory Factors

## Section V: Sensory Integration Strategies
Sensory diet, tools, and environmental modifications.

## Section VI: Sleep Optimization Recommendations

## Section VII: Missing Data
` + promptDataBlock

const environmentalBody = `You are an environmental psychologist and BCBA conducting a contextual analysis.

` + promptHeader + `
**CRITICAL INSTRUCTION:** Spend 80% of your analysis on environmental factors
and contexts: which settings, times, social configurations, and conditions
produce the best and worst outcomes.

**Report Structure (MANDATORY):**

# Environmental & Contextual Analysis

## Section I: Setting & Context Inventory
Home, school, community, and clinical settings with success and challenge
indicators.

## Section II: High-Risk Context Identification
Contexts with the highest incident rates, their environmental analysis,
and context-specific antecedents.

## Section III: Protective Context Analysis
Settings where behavior is consistently successful and the elements worth
replicating.

## Section IV: Social Dynamics & Relationships
Peer pairings, adult interaction styles, group size tolerance.

## Section V: Schedule & Routine Analysis
Time-of-day and day-of-week patterns, sleep schedule impact, transitions.

## Section VI: Environmental Modification Recommendations

## Section VII: Contextual Data Gaps
` + promptDataBlock
