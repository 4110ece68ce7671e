package bridge

import (
	"time"

	"chatlens/internal/domain"
)

// HierarchicalContext is the bridge's full output for one chunk: the
// never-leaves-local full analysis, the cloud-safe summary, the optional
// pattern-only encrypted vector, the validator's verdict, and the chain of
// abstraction levels actually produced.
type HierarchicalContext struct {
	LocalAnalysis    domain.Enrichment       `json:"local_analysis"`
	ContextSummary   ContextSummary          `json:"context_summary"`
	EncryptedContext *EncryptedContextVector `json:"encrypted_context,omitempty"`
	Validation       ValidationResult        `json:"privacy_validation"`
	AbstractionChain []AbstractionLevel      `json:"abstraction_chain"`
}

// Bridge is the main entry point for hierarchical context processing
// (spec.md §4.3). One Bridge instance corresponds to one session: it holds
// the session's encryption key and tokenizer salt so tokens and vector
// keys stay stable across chunks processed through it.
type Bridge struct {
	abstraction *AbstractionEngine
	encryption  *EncryptionManager // nil when cloud processing is disabled
	validator   *Validator
}

// NewBridge builds a Bridge. salt seeds both the tokenizer and the DP
// noise deterministically (spec.md §4.1); epsilon governs the Laplace
// noise added to ContextSummary's numerical scores; enableEncryption
// controls whether level-4 (pattern-only, encrypted vector) output is ever
// produced.
func NewBridge(salt []byte, epsilon float64, enableEncryption bool) (*Bridge, error) {
	tokenizer := NewPrivacyTokenizer(string(salt))
	b := &Bridge{
		abstraction: NewAbstractionEngine(salt, epsilon, tokenizer),
		validator:   NewValidator(),
	}
	if enableEncryption {
		mgr, err := NewEncryptionManager()
		if err != nil {
			return nil, err
		}
		b.encryption = mgr
	}
	return b, nil
}

// CreateHierarchicalContext builds the full ladder for one chunk's local
// enrichment, given its conversation window. enableCloudProcessing gates
// whether level 4 is produced at all, independent of whether the Bridge
// itself was built with encryption enabled.
func (b *Bridge) CreateHierarchicalContext(local domain.Enrichment, window []WindowEntry, enableCloudProcessing bool) (HierarchicalContext, error) {
	summary := b.abstraction.CreateContextSummary(local, window)

	var encrypted *EncryptedContextVector
	if enableCloudProcessing && b.encryption != nil {
		enc, err := b.createEncryptedContext(local, window)
		if err != nil {
			return HierarchicalContext{}, err
		}
		encrypted = enc
	}

	validation := b.validator.Validate(local.LabelsFine, summary, encrypted)

	chain := []AbstractionLevel{LevelFullDetail, LevelHighAbstract}
	if encrypted != nil {
		chain = append(chain, LevelPatternOnly)
	}

	return HierarchicalContext{
		LocalAnalysis:    local,
		ContextSummary:   summary,
		EncryptedContext: encrypted,
		Validation:       validation,
		AbstractionChain: chain,
	}, nil
}

func (b *Bridge) createEncryptedContext(local domain.Enrichment, window []WindowEntry) (*EncryptedContextVector, error) {
	semantic := BuildSemanticVector(local.LabelsCoarse)
	emotional := BuildEmotionalVector(local)
	relationship := BuildRelationshipVector(local)

	encSemantic, err := b.encryption.EncryptVector(semantic)
	if err != nil {
		return nil, err
	}
	encEmotional, err := b.encryption.EncryptVector(emotional)
	if err != nil {
		return nil, err
	}
	encRelationship, err := b.encryption.EncryptVector(relationship)
	if err != nil {
		return nil, err
	}

	return &EncryptedContextVector{
		EncryptedSemanticVector:     encSemantic,
		EncryptedEmotionalVector:    encEmotional,
		EncryptedRelationshipVector: encRelationship,
		ConversationPhase:           DetermineConversationPhase(window),
		TemporalPosition:            time.Now().UTC().Hour(),
		MessageCountRange:           MessageCountRange(len(window)),
		EncryptionKeyID:             b.encryption.KeyID(),
		VectorDimension:             len(semantic),
		PrivacyTier:                 domain.TierPatternOnly,
	}, nil
}
