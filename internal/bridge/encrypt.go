package bridge

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"chatlens/internal/domain"
)

const (
	semanticDim     = 128
	emotionalDim    = 64
	relationshipDim = 32
)

// EncryptedContextVector is abstraction level 4 ("pattern only"): three
// fixed-dimension vectors encrypted under a session key, plus coarse
// temporal metadata safe to disclose alongside the ciphertext. See
// spec.md §4.3.
type EncryptedContextVector struct {
	EncryptedSemanticVector     []byte `json:"encrypted_semantic_vector"`
	EncryptedEmotionalVector    []byte `json:"encrypted_emotional_vector"`
	EncryptedRelationshipVector []byte `json:"encrypted_relationship_vector"`

	ConversationPhase string `json:"conversation_phase"`
	TemporalPosition  int    `json:"temporal_position"` // hour of day, 0-23
	MessageCountRange string `json:"message_count_range"`

	EncryptionKeyID string            `json:"encryption_key_id"`
	VectorDimension int               `json:"vector_dimension"`
	PrivacyTier     domain.PrivacyTier `json:"privacy_tier"`
}

// EncryptionManager holds the session's AES-256-GCM key and encrypts
// context vectors before they may be handed to a cloud consumer.
//
// The reference implementation in
// original_source/src/chatx/privacy/hierarchical_context.py uses a raw XOR
// keystream as a placeholder ("use proper AES in production"); spec.md §4.3
// resolves that open question by requiring an authenticated cipher, so this
// type uses Go's standard-library crypto/aes + crypto/cipher AES-256-GCM
// directly — no third-party crate in the example pack offers anything
// beyond what the standard library already provides for AEAD, so stdlib is
// the idiomatic choice here (see DESIGN.md).
type EncryptionManager struct {
	key   []byte // 32 bytes, AES-256
	keyID string
	gcm   cipher.AEAD
}

// NewEncryptionManager generates a fresh session key and key-id.
func NewEncryptionManager() (*EncryptionManager, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("bridge: generate session key: %w", err)
	}
	keyIDBytes := make([]byte, 8)
	if _, err := rand.Read(keyIDBytes); err != nil {
		return nil, fmt.Errorf("bridge: generate key id: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("bridge: init aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("bridge: init gcm: %w", err)
	}

	return &EncryptionManager{key: key, keyID: hex.EncodeToString(keyIDBytes), gcm: gcm}, nil
}

// KeyID returns the session's encryption key identifier.
func (m *EncryptionManager) KeyID() string { return m.keyID }

// EncryptVector serializes a float32 vector as little-endian bytes and
// seals it with AES-256-GCM, prefixing the random nonce.
func (m *EncryptionManager) EncryptVector(vector []float32) ([]byte, error) {
	raw := make([]byte, 4*len(vector))
	for i, f := range vector {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}

	nonce := make([]byte, m.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("bridge: generate nonce: %w", err)
	}
	sealed := m.gcm.Seal(nonce, nonce, raw, nil)
	return sealed, nil
}

// DecryptVector reverses EncryptVector, returning the original float32
// slice. Used by test code and any local-side verification tooling; cloud
// consumers never hold the session key.
func (m *EncryptionManager) DecryptVector(sealed []byte, dim int) ([]float32, error) {
	nonceSize := m.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("bridge: ciphertext shorter than nonce")
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	raw, err := m.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: decrypt vector: %w", err)
	}
	out := make([]float32, dim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// BuildSemanticVector extracts a fixed 128-dim, zero-padded feature vector
// from coarse labels: a placeholder for a real embedding call, holding one
// presence flag each for stress, intimacy, conflict and support, in that
// order; other labels do not affect it.
func BuildSemanticVector(coarseLabels []string) []float32 {
	present := make(map[string]bool, len(coarseLabels))
	for _, l := range coarseLabels {
		present[l] = true
	}
	v := make([]float32, 0, semanticDim)
	for _, l := range []string{"stress", "intimacy", "conflict", "support"} {
		if present[l] {
			v = append(v, 1.0)
		} else {
			v = append(v, 0.0)
		}
	}
	return padVector(v, semanticDim)
}

var emotionOneHot = map[domain.PrimaryEmotion][4]float32{
	domain.EmotionJoy:     {1, 0, 0, 0},
	domain.EmotionSadness: {0, 1, 0, 0},
	domain.EmotionAnger:   {0, 0, 1, 0},
	domain.EmotionFear:    {0, 0, 0, 1},
}

// BuildEmotionalVector extracts a fixed 64-dim vector from the primary
// emotion one-hot plus directness/certainty scalars.
func BuildEmotionalVector(e domain.Enrichment) []float32 {
	onehot, ok := emotionOneHot[e.PrimaryEmotion]
	v := make([]float32, 0, emotionalDim)
	if ok {
		v = append(v, onehot[:]...)
	} else {
		v = append(v, 0, 0, 0, 0)
	}
	v = append(v, float32(e.Directness), float32(e.Certainty))
	return padVector(v, emotionalDim)
}

var boundaryOneHot = map[domain.BoundarySignal][3]float32{
	domain.BoundarySet:     {1, 0, 0},
	domain.BoundaryTest:    {0, 1, 0},
	domain.BoundaryViolate: {0, 0, 1},
}

var stanceOneHot = map[domain.Stance][3]float32{
	domain.StanceSupportive:  {1, 0, 0},
	domain.StanceChallenging: {0, 1, 0},
	domain.StanceNeutral:     {0, 0, 1},
}

// BuildRelationshipVector extracts a fixed 32-dim vector from boundary
// signal and stance one-hots.
func BuildRelationshipVector(e domain.Enrichment) []float32 {
	v := make([]float32, 0, relationshipDim)
	if onehot, ok := boundaryOneHot[e.BoundarySignal]; ok {
		v = append(v, onehot[:]...)
	} else {
		v = append(v, 0, 0, 0)
	}
	v = append(v, 0) // repair_attempt placeholder: no domain field carries this yet
	if onehot, ok := stanceOneHot[e.Stance]; ok {
		v = append(v, onehot[:]...)
	} else {
		v = append(v, 0, 0, 1)
	}
	return padVector(v, relationshipDim)
}

func padVector(v []float32, dim int) []float32 {
	if len(v) >= dim {
		return v[:dim]
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// DetermineConversationPhase buckets a window into
// opening/development/climax/resolution, per the original_source heuristic.
// An empty window yields "single".
func DetermineConversationPhase(window []WindowEntry) string {
	n := len(window)
	if n == 0 {
		return "single"
	}
	if n <= 2 {
		return "opening"
	}
	if n <= 10 {
		for _, w := range window {
			if w.Enrichment.PrimaryEmotion == domain.EmotionAnger {
				return "climax"
			}
		}
		return "development"
	}
	tail := window[n-3:]
	allNeutral := true
	for _, w := range tail {
		if w.Enrichment.PrimaryEmotion != domain.EmotionNeutral {
			allNeutral = false
			break
		}
	}
	if allNeutral {
		return "resolution"
	}
	return "development"
}

// MessageCountRange buckets a window size into the coarse range tag spec.md
// §4.3 attaches to EncryptedContextVector.
func MessageCountRange(messageCount int) string {
	switch {
	case messageCount <= 5:
		return "1-5"
	case messageCount <= 20:
		return "6-20"
	case messageCount <= 50:
		return "21-50"
	default:
		return "50+"
	}
}
