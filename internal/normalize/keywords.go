package normalize

// LeadershipKeywords are generic role words; each occurrence scores +2.
var LeadershipKeywords = []string{
	"leadership", "co-founder", "team", "executive", "board", "leaders",
	"directors", "position", "role", "ceo", "president", "cfo", "coo",
	"chief", "vp", "vice president", "management", "founder", "partner",
	"owner", "officer", "chair", "principal", "advisor", "head",
	"executive team", "leadership team", "senior management",
	"company officers", "key personnel", "corporate officers", "governance",
	"administration", "executive committee", "managing director",
}

// ExecutiveTitles are the title strings the extraction targets; each
// occurrence scores +3.
var ExecutiveTitles = []string{
	"CEO", "Founder", "Vice President", "Chief Executive Officer",
	"Chief Operating Officer", "Manager", "Director", "CTO",
	"Chief Technical Officer", "Lead", "CFO", "Chief Financial Officer",
	"COO", "Chief People Officer", "VP of Talent Acquisition",
	"VP of People", "Chief of Staff", "Head of Talent Acquisition",
	"Head of People", "VP of Engineering", "VP of Operations",
	"Director of Engineering", "Recruiter", "Associate", "Assistant",
	"Intern",
}

// frequencyWords add one point per occurrence, capped at frequencyCap.
var frequencyWords = []string{"position", "role", "job"}

const frequencyCap = 5
