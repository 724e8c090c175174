package features

// Namespace is the name under which the built-in catalog is registered
const Namespace = "features"

// Catalog returns the built-in features keyed by name. Each call returns a
// fresh map the caller may extend.
func Catalog() map[string]Func {
	return map[string]Func{
		"bag_of_words":                      Wrap(BagOfWords),
		"bag_of_pos":                        Wrap(BagOfPos),
		"bag_of_word_bigrams":               Wrap(BagOfWordBigrams),
		"bag_of_wordpos":                    Wrap(BagOfWordPos),
		"bag_of_wordpos_bigrams":            Wrap(BagOfWordPosBigrams),
		"bag_of_lemmas":                     Wrap(BagOfLemmas),
		"bag_of_words_in_between":           Wrap(BagOfWordsInBetween),
		"bag_of_pos_in_between":             Wrap(BagOfPosInBetween),
		"bag_of_word_bigrams_in_between":    Wrap(BagOfWordBigramsInBetween),
		"bag_of_wordpos_in_between":         Wrap(BagOfWordPosInBetween),
		"bag_of_wordpos_bigrams_in_between": Wrap(BagOfWordPosBigramsInBetween),
		"bag_of_lemmas_in_between":          Wrap(BagOfLemmasInBetween),
		"bag_of_tree_tags":                  Wrap(BagOfTreeTags),
		"entity_order":                      Wrap(EntityOrder),
		"entity_distance":                   Wrap(EntityDistance),
		"other_entities_in_between":         Wrap(OtherEntitiesInBetween),
		"total_number_of_entities":          Wrap(TotalNumberOfEntities),
		"verbs_count":                       Wrap(VerbsCount),
		"verbs_count_in_between":            Wrap(VerbsCountInBetween),
		"symbols_in_between":                Wrap(SymbolsInBetween),
		"number_of_tokens":                  Wrap(NumberOfTokens),
		"lemmas_count_in_between":           Wrap(LemmasCountInBetween),
		"tree_height":                       Wrap(TreeHeight),
	}
}
