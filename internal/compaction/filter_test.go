package compaction

import (
	"testing"

	"github.com/getong/leveled/internal/journalkey"
)

func stdKey(sqn journalkey.SQN, tag journalkey.Tag) journalkey.JournalKey {
	return journalkey.JournalKey{
		SQN:       sqn,
		Kind:      journalkey.Standard,
		LedgerKey: journalkey.LedgerKey{UserKey: "k", Tag: tag},
	}
}

func TestClassify_Corrupt(t *testing.T) {
	key := stdKey(1, "o")
	got := Classify(key, false, func(journalkey.LedgerKey, journalkey.SQN) bool { return true }, 100, nil)
	if got != Corrupt {
		t.Errorf("Classify with crcOK=false = %v, want Corrupt", got)
	}
}

func TestClassify_KeyValidKeepsOriginal(t *testing.T) {
	key := stdKey(5, "o")
	got := Classify(key, true, func(journalkey.LedgerKey, journalkey.SQN) bool { return true }, 100, journalkey.StrategyMap{"o": journalkey.Recalc})
	if got != KeepOriginal {
		t.Errorf("Classify with key_valid=true = %v, want KeepOriginal", got)
	}
}

func TestClassify_AboveHorizonKeepsOriginal(t *testing.T) {
	key := stdKey(50, "o")
	got := Classify(key, true, func(journalkey.LedgerKey, journalkey.SQN) bool { return false }, 9, journalkey.StrategyMap{"o": journalkey.Recalc})
	if got != KeepOriginal {
		t.Errorf("Classify with sqn>maxSQN = %v, want KeepOriginal", got)
	}
}

func TestClassify_RetainKeepsCompacted(t *testing.T) {
	key := stdKey(1, "o")
	got := Classify(key, true, func(journalkey.LedgerKey, journalkey.SQN) bool { return false }, 100, journalkey.StrategyMap{"o": journalkey.Retain})
	if got != KeepCompacted {
		t.Errorf("Classify with retain strategy = %v, want KeepCompacted", got)
	}
}

func TestClassify_RecalcAndRecovrDrop(t *testing.T) {
	for _, strategy := range []journalkey.Strategy{journalkey.Recalc, journalkey.Recovr} {
		key := stdKey(1, "o")
		got := Classify(key, true, func(journalkey.LedgerKey, journalkey.SQN) bool { return false }, 100, journalkey.StrategyMap{"o": strategy})
		if got != Drop {
			t.Errorf("Classify with strategy %v = %v, want Drop", strategy, got)
		}
	}
}

func TestClassify_TombstoneAlwaysSurvives(t *testing.T) {
	key := journalkey.JournalKey{SQN: 1, Kind: journalkey.Tombstone, LedgerKey: journalkey.LedgerKey{UserKey: "k", Tag: "o"}}
	got := Classify(key, true, func(journalkey.LedgerKey, journalkey.SQN) bool { return false }, 0, journalkey.StrategyMap{"o": journalkey.Recovr})
	if got != KeepOriginal {
		t.Errorf("Classify of tombstone = %v, want KeepOriginal regardless of strategy/ledger", got)
	}
}

func TestClassify_UnknownTagDefaultsToRecovr(t *testing.T) {
	key := stdKey(1, "unregistered")
	got := Classify(key, true, func(journalkey.LedgerKey, journalkey.SQN) bool { return false }, 100, journalkey.StrategyMap{})
	if got != Drop {
		t.Errorf("Classify with unregistered tag = %v, want Drop (Recovr default)", got)
	}
}
