package rules

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

type lexEntry struct {
	pos string
	tag string
}

// closedClass covers function words whose tags do not depend on context.
var closedClass = map[string]lexEntry{
	"the": {"DET", "DT"}, "a": {"DET", "DT"}, "an": {"DET", "DT"},
	"this": {"DET", "DT"}, "that": {"SCONJ", "IN"}, "these": {"DET", "DT"}, "those": {"DET", "DT"},
	"every": {"DET", "DT"}, "each": {"DET", "DT"}, "some": {"DET", "DT"}, "any": {"DET", "DT"},
	"no": {"DET", "DT"}, "all": {"DET", "DT"}, "both": {"DET", "DT"}, "another": {"DET", "DT"},

	"i": {"PRON", "PRP"}, "you": {"PRON", "PRP"}, "he": {"PRON", "PRP"}, "she": {"PRON", "PRP"},
	"it": {"PRON", "PRP"}, "we": {"PRON", "PRP"}, "they": {"PRON", "PRP"}, "me": {"PRON", "PRP"},
	"him": {"PRON", "PRP"}, "us": {"PRON", "PRP"}, "them": {"PRON", "PRP"},
	"myself": {"PRON", "PRP"}, "yourself": {"PRON", "PRP"}, "himself": {"PRON", "PRP"},
	"herself": {"PRON", "PRP"}, "itself": {"PRON", "PRP"}, "themselves": {"PRON", "PRP"},
	"my": {"PRON", "PRP$"}, "your": {"PRON", "PRP$"}, "his": {"PRON", "PRP$"}, "its": {"PRON", "PRP$"},
	"our": {"PRON", "PRP$"}, "their": {"PRON", "PRP$"}, "her": {"PRON", "PRP$"},
	"who": {"PRON", "WP"}, "whom": {"PRON", "WP"}, "what": {"PRON", "WP"}, "which": {"DET", "WDT"},
	"where": {"SCONJ", "WRB"}, "when": {"SCONJ", "WRB"}, "why": {"SCONJ", "WRB"}, "how": {"SCONJ", "WRB"},
	"something": {"PRON", "NN"}, "nothing": {"PRON", "NN"}, "everything": {"PRON", "NN"},
	"someone": {"PRON", "NN"}, "everyone": {"PRON", "NN"}, "anyone": {"PRON", "NN"},

	"in": {"ADP", "IN"}, "on": {"ADP", "IN"}, "at": {"ADP", "IN"}, "by": {"ADP", "IN"},
	"with": {"ADP", "IN"}, "from": {"ADP", "IN"}, "of": {"ADP", "IN"}, "for": {"ADP", "IN"},
	"about": {"ADP", "IN"}, "into": {"ADP", "IN"}, "over": {"ADP", "IN"}, "under": {"ADP", "IN"},
	"after": {"ADP", "IN"}, "before": {"ADP", "IN"}, "between": {"ADP", "IN"}, "through": {"ADP", "IN"},
	"during": {"ADP", "IN"}, "without": {"ADP", "IN"}, "near": {"ADP", "IN"}, "behind": {"ADP", "IN"},
	"across": {"ADP", "IN"}, "against": {"ADP", "IN"}, "among": {"ADP", "IN"}, "around": {"ADP", "IN"},
	"to": {"ADP", "IN"}, "than": {"ADP", "IN"}, "since": {"SCONJ", "IN"},

	"and": {"CCONJ", "CC"}, "or": {"CCONJ", "CC"}, "but": {"CCONJ", "CC"}, "nor": {"CCONJ", "CC"},
	"because": {"SCONJ", "IN"}, "if": {"SCONJ", "IN"}, "while": {"SCONJ", "IN"},
	"although": {"SCONJ", "IN"}, "though": {"SCONJ", "IN"}, "unless": {"SCONJ", "IN"}, "until": {"SCONJ", "IN"},

	"not": {"PART", "RB"}, "n't": {"PART", "RB"},

	"is": {"AUX", "VBZ"}, "are": {"AUX", "VBP"}, "am": {"AUX", "VBP"}, "was": {"AUX", "VBD"},
	"were": {"AUX", "VBD"}, "be": {"AUX", "VB"}, "been": {"AUX", "VBN"}, "being": {"AUX", "VBG"},
	"'re": {"AUX", "VBP"}, "'m": {"AUX", "VBP"},
	"has": {"AUX", "VBZ"}, "have": {"AUX", "VBP"}, "had": {"AUX", "VBD"}, "'ve": {"AUX", "VBP"},
	"does": {"AUX", "VBZ"}, "do": {"AUX", "VBP"}, "did": {"AUX", "VBD"},
	"will": {"AUX", "MD"}, "would": {"AUX", "MD"}, "can": {"AUX", "MD"}, "could": {"AUX", "MD"},
	"shall": {"AUX", "MD"}, "should": {"AUX", "MD"}, "may": {"AUX", "MD"}, "might": {"AUX", "MD"},
	"must": {"AUX", "MD"}, "'ll": {"AUX", "MD"}, "'d": {"AUX", "MD"}, "ca": {"AUX", "MD"}, "wo": {"AUX", "MD"},

	"very": {"ADV", "RB"}, "also": {"ADV", "RB"}, "never": {"ADV", "RB"}, "always": {"ADV", "RB"},
	"often": {"ADV", "RB"}, "again": {"ADV", "RB"}, "still": {"ADV", "RB"}, "just": {"ADV", "RB"},
	"too": {"ADV", "RB"}, "here": {"ADV", "RB"}, "there": {"ADV", "RB"}, "then": {"ADV", "RB"},
	"now": {"ADV", "RB"}, "soon": {"ADV", "RB"}, "already": {"ADV", "RB"}, "well": {"ADV", "RB"},
	"yes": {"INTJ", "UH"}, "oh": {"INTJ", "UH"}, "hello": {"INTJ", "UH"}, "please": {"INTJ", "UH"},

	"yesterday": {"NOUN", "NN"}, "today": {"NOUN", "NN"}, "tomorrow": {"NOUN", "NN"}, "tonight": {"NOUN", "NN"},
}

// irregularVerbs maps inflected forms to lemma and PTB tag.
var irregularVerbs = map[string]lexEntry{
	"met": {"meet", "VBD"}, "saw": {"see", "VBD"}, "seen": {"see", "VBN"}, "went": {"go", "VBD"},
	"gone": {"go", "VBN"}, "came": {"come", "VBD"}, "took": {"take", "VBD"}, "taken": {"take", "VBN"},
	"gave": {"give", "VBD"}, "given": {"give", "VBN"}, "made": {"make", "VBD"}, "knew": {"know", "VBD"},
	"known": {"know", "VBN"}, "thought": {"think", "VBD"}, "said": {"say", "VBD"}, "told": {"tell", "VBD"},
	"found": {"find", "VBD"}, "got": {"get", "VBD"}, "bought": {"buy", "VBD"}, "brought": {"bring", "VBD"},
	"ate": {"eat", "VBD"}, "eaten": {"eat", "VBN"}, "ran": {"run", "VBD"}, "wrote": {"write", "VBD"},
	"written": {"write", "VBN"}, "read": {"read", "VBD"}, "left": {"leave", "VBD"}, "felt": {"feel", "VBD"},
	"kept": {"keep", "VBD"}, "sat": {"sit", "VBD"}, "stood": {"stand", "VBD"}, "spoke": {"speak", "VBD"},
	"taught": {"teach", "VBD"}, "built": {"build", "VBD"}, "sent": {"send", "VBD"}, "spent": {"spend", "VBD"},
	"won": {"win", "VBD"}, "lost": {"lose", "VBD"}, "paid": {"pay", "VBD"}, "heard": {"hear", "VBD"},
	"held": {"hold", "VBD"}, "began": {"begin", "VBD"}, "drove": {"drive", "VBD"}, "flew": {"fly", "VBD"},
	"drank": {"drink", "VBD"}, "sang": {"sing", "VBD"}, "slept": {"sleep", "VBD"}, "founded": {"found", "VBD"},
}

// verbBases lists common lexical verbs in base form.
var verbBases = set(
	"meet", "see", "go", "come", "take", "give", "make", "know", "think", "say", "tell", "find",
	"get", "buy", "bring", "eat", "run", "write", "read", "leave", "feel", "keep", "sit", "stand",
	"speak", "teach", "build", "send", "spend", "win", "lose", "pay", "hear", "hold", "begin", "drive",
	"fly", "drink", "sing", "sleep", "like", "love", "hate", "want", "need", "call", "work", "live",
	"help", "visit", "play", "walk", "talk", "ask", "open", "close", "start", "stop", "move", "use",
	"try", "look", "watch", "learn", "study", "marry", "hire", "join", "create", "found", "own",
	"believe", "agree", "arrive", "travel", "cook", "clean", "finish", "invite", "thank", "kill",
	"attack", "climb", "jump", "smile", "laugh", "cry", "carry", "push", "pull", "sell", "share",
	"announce", "launch", "acquire", "release", "support", "develop", "design", "return",
	"rain", "stay", "snow", "wait",
)

var adjectives = set(
	"good", "bad", "big", "small", "new", "old", "young", "happy", "sad", "red", "blue", "green",
	"black", "white", "long", "short", "high", "low", "great", "little", "large", "early", "late",
	"important", "nice", "fast", "slow", "hot", "cold", "tall", "beautiful", "pretty", "strong",
	"weak", "rich", "poor", "smart", "kind", "angry", "tired", "busy", "famous", "easy", "hard",
	"first", "last", "next", "best", "better", "real", "sure", "free", "full", "clear", "ready",
)

var stopWords = set(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any",
	"are", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both",
	"but", "by", "ca", "can", "could", "did", "do", "does", "doing", "down", "during", "each",
	"few", "for", "from", "further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is", "it", "its", "itself",
	"just", "me", "more", "most", "must", "my", "myself", "n't", "no", "nor", "not", "now", "of",
	"off", "on", "once", "only", "or", "other", "our", "ours", "out", "over", "own", "same", "she",
	"should", "so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves",
	"then", "there", "these", "they", "this", "those", "through", "to", "too", "under", "until",
	"up", "very", "was", "we", "were", "what", "when", "where", "which", "while", "who", "whom",
	"why", "will", "with", "would", "you", "your", "yours", "yourself", "'s", "'re", "'ll", "'ve",
	"'m", "'d", "never", "always", "often", "still", "already", "well", "may", "might", "shall",
	"wo", "yet", "again", "around", "across", "among", "behind", "without", "every", "another",
)

var norms = map[string]string{
	"n't": "not",
	"'re": "are",
	"'ll": "will",
	"'ve": "have",
	"'m":  "am",
	"ca":  "can",
	"wo":  "will",
}

var auxLemmas = map[string]string{
	"is": "be", "are": "be", "am": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"'re": "be", "'m": "be", "has": "have", "had": "have", "'ve": "have", "does": "do", "did": "do",
	"'ll": "will", "'d": "would", "ca": "can", "wo": "will", "n't": "not",
}

// nominative maps object and reflexive pronoun forms to their AMR concept.
var nominative = map[string]string{
	"me": "i", "my": "i", "myself": "i", "him": "he", "his": "he", "himself": "he",
	"her": "she", "hers": "she", "herself": "she", "us": "we", "our": "we",
	"them": "they", "their": "they", "themselves": "they", "its": "it", "itself": "it",
	"your": "you", "yourself": "you",
}

var titles = set("mr", "mrs", "ms", "dr", "prof", "sir", "madam", "president", "king", "queen")

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6, "july": 7,
	"august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

var relativeDates = set("yesterday", "today", "tomorrow", "tonight")

var orgSuffixes = set("inc", "inc.", "corp", "corp.", "corporation", "ltd", "ltd.", "llc", "company",
	"university", "bank", "group", "institute", "foundation", "agency")

// places maps lower-cased place names to their AMR concept.
var places = map[string]string{
	"paris": "city", "london": "city", "berlin": "city", "tokyo": "city", "rome": "city",
	"madrid": "city", "moscow": "city", "beijing": "city", "chicago": "city", "boston": "city",
	"new york": "city", "los angeles": "city", "san francisco": "city", "seattle": "city",
	"france": "country", "germany": "country", "england": "country", "spain": "country",
	"italy": "country", "china": "country", "japan": "country", "russia": "country",
	"canada": "country", "mexico": "country", "india": "country", "brazil": "country",
	"america": "country", "united states": "country", "united kingdom": "country",
	"california": "state", "texas": "state", "florida": "state", "europe": "continent",
	"asia": "continent", "africa": "continent",
}

var femaleNames = set("alice", "mary", "emma", "olivia", "sophia", "anna", "sarah", "julia", "maria",
	"linda", "susan", "karen", "lisa", "jane", "kate", "laura", "emily", "grace", "eve", "claire")

var maleNames = set("bob", "john", "james", "michael", "david", "robert", "william", "peter", "paul",
	"mark", "tom", "steve", "george", "jack", "charles", "daniel", "frank", "henry", "adam", "carl")

type pronounInfo struct {
	gender string
	plural bool
}

var personalPronouns = map[string]pronounInfo{
	"he": {"masc", false}, "him": {"masc", false}, "his": {"masc", false}, "himself": {"masc", false},
	"she": {"fem", false}, "her": {"fem", false}, "hers": {"fem", false}, "herself": {"fem", false},
	"it": {"neut", false}, "its": {"neut", false}, "itself": {"neut", false},
	"they": {"", true}, "them": {"", true}, "their": {"", true}, "themselves": {"", true},
}

var pronounMorph = map[string]string{
	"i":     "Case=Nom|Number=Sing|Person=1|PronType=Prs",
	"me":    "Case=Acc|Number=Sing|Person=1|PronType=Prs",
	"you":   "Person=2|PronType=Prs",
	"he":    "Case=Nom|Gender=Masc|Number=Sing|Person=3|PronType=Prs",
	"him":   "Case=Acc|Gender=Masc|Number=Sing|Person=3|PronType=Prs",
	"she":   "Case=Nom|Gender=Fem|Number=Sing|Person=3|PronType=Prs",
	"her":   "Case=Acc|Gender=Fem|Number=Sing|Person=3|PronType=Prs",
	"it":    "Gender=Neut|Number=Sing|Person=3|PronType=Prs",
	"we":    "Case=Nom|Number=Plur|Person=1|PronType=Prs",
	"us":    "Case=Acc|Number=Plur|Person=1|PronType=Prs",
	"they":  "Case=Nom|Number=Plur|Person=3|PronType=Prs",
	"them":  "Case=Acc|Number=Plur|Person=3|PronType=Prs",
	"my":    "Number=Sing|Person=1|Poss=Yes|PronType=Prs",
	"his":   "Gender=Masc|Number=Sing|Person=3|Poss=Yes|PronType=Prs",
	"its":   "Gender=Neut|Number=Sing|Person=3|Poss=Yes|PronType=Prs",
	"our":   "Number=Plur|Person=1|Poss=Yes|PronType=Prs",
	"your":  "Person=2|Poss=Yes|PronType=Prs",
	"their": "Number=Plur|Person=3|Poss=Yes|PronType=Prs",
}

var tagMorph = map[string]string{
	"NN":  "Number=Sing",
	"NNP": "Number=Sing",
	"NNS": "Number=Plur",
	"VBD": "Tense=Past|VerbForm=Fin",
	"VBZ": "Number=Sing|Person=3|Tense=Pres|VerbForm=Fin",
	"VBP": "Tense=Pres|VerbForm=Fin",
	"VB":  "VerbForm=Inf",
	"VBG": "Aspect=Prog|Tense=Pres|VerbForm=Part",
	"VBN": "Aspect=Perf|Tense=Past|VerbForm=Part",
	"MD":  "VerbType=Mod",
	"CD":  "NumType=Card",
	"JJ":  "Degree=Pos",
	".":   "PunctType=Peri",
	",":   "PunctType=Comm",
}
