package normalize

import "strings"

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but if then else of to in on at by for from with
		about into over under as is are was were be been being am do does did has have had having
		this that these those it its it's we our ours us you your yours they their theirs them he him his
		she her hers i me my mine who whom which what when where why how all any both each few more most
		other some such no nor not only own same so than too very can will just should would could
		may might must also here there out up down off again further once`) {
		stopWords[w] = struct{}{}
	}
}

// RemoveStopWords drops common function words, keeping line structure.
func RemoveStopWords(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		kept := words[:0]
		for _, w := range words {
			if _, ok := stopWords[strings.ToLower(w)]; !ok {
				kept = append(kept, w)
			}
		}
		lines[i] = strings.Join(kept, " ")
	}
	return collapse(strings.Join(lines, "\n"))
}
