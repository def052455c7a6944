package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

const (
	// maxSequenceLength matches the exported model's position embeddings.
	maxSequenceLength = 512
	// minTokenConfidence demotes low-certainty token predictions to "O".
	minTokenConfidence = 0.5
)

// ONNXRecognizer runs a token-classification NER model exported to ONNX.
// The model is expected to emit one logit row per input token over a BIO
// label set (O, B-PER, I-PER, B-ORG, ...). Tokenizer, model and label map
// paths all come from configuration; nothing is probed from the working
// directory.
type ONNXRecognizer struct {
	mu           sync.Mutex
	tokenizer    *tokenizers.Tokenizer
	session      *onnxruntime.AdvancedSession
	inputTensor  *onnxruntime.Tensor[int64]
	maskTensor   *onnxruntime.Tensor[int64]
	outputTensor *onnxruntime.Tensor[float32]
	id2label     map[string]string
	numLabels    int
	modelPath    string
}

// NewONNXRecognizer loads the tokenizer and label mapping eagerly; the ONNX
// session itself is created lazily on first use so startup stays cheap when
// the recognizer is configured but never exercised.
func NewONNXRecognizer(modelPath, tokenizerPath, labelMapPath string) (*ONNXRecognizer, error) {
	if libPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); libPath != "" {
		onnxruntime.SetSharedLibraryPath(libPath)
	}
	if !onnxruntime.IsInitialized() {
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}

	tk, err := tokenizers.FromFile(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	id2label, numLabels, err := loadLabelMap(labelMapPath)
	if err != nil {
		if closeErr := tk.Close(); closeErr != nil {
			err = fmt.Errorf("%w (tokenizer close: %v)", err, closeErr)
		}
		return nil, err
	}

	return &ONNXRecognizer{
		tokenizer: tk,
		id2label:  id2label,
		numLabels: numLabels,
		modelPath: modelPath,
	}, nil
}

func loadLabelMap(path string) (map[string]string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read label map: %w", err)
	}

	var mapping struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, 0, fmt.Errorf("parse label map: %w", err)
	}
	if len(mapping.ID2Label) == 0 {
		return nil, 0, fmt.Errorf("label map %s holds no labels", path)
	}

	numLabels := 0
	for idStr := range mapping.ID2Label {
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 0 {
			continue
		}
		if id >= numLabels {
			numLabels = id + 1
		}
	}
	if numLabels == 0 {
		numLabels = len(mapping.ID2Label)
	}
	return mapping.ID2Label, numLabels, nil
}

func (r *ONNXRecognizer) Name() string { return RecognizerNameONNX }

// Recognize tokenizes the input, runs one inference pass and decodes the
// BIO-tagged logits back into character-addressed entity spans.
func (r *ONNXRecognizer) Recognize(ctx context.Context, in Input) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	encoding := r.tokenizer.EncodeWithOptions(in.Text, true, tokenizers.WithReturnOffsets())
	tokenIDs := encoding.IDs
	offsets := encoding.Offsets
	if len(tokenIDs) > maxSequenceLength {
		tokenIDs = tokenIDs[:maxSequenceLength]
		offsets = offsets[:maxSequenceLength]
	}

	// A single session serializes inference; the tensors are reused across
	// calls.
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		if err := r.initializeSession(); err != nil {
			return Output{}, fmt.Errorf("initialize session: %w", err)
		}
	}

	inputData := r.inputTensor.GetData()
	maskData := r.maskTensor.GetData()
	for i := range inputData {
		inputData[i] = 0
		maskData[i] = 0
	}
	for i, id := range tokenIDs {
		inputData[i] = int64(id)
		maskData[i] = 1
	}

	if err := r.session.Run(); err != nil {
		return Output{}, fmt.Errorf("run inference: %w", err)
	}

	entities := decodeBIO(in.Text, offsets, r.outputTensor.GetData(), len(tokenIDs), r.numLabels, r.id2label)
	return Output{Text: in.Text, Entities: entities}, nil
}

// decodeBIO groups consecutive B-/I- tagged tokens into entities. Token
// predictions below minTokenConfidence count as "O".
func decodeBIO(text string, offsets []tokenizers.Offset, logits []float32, numTokens, numLabels int, id2label map[string]string) []Entity {
	if len(offsets) < numTokens {
		numTokens = len(offsets)
	}

	var entities []Entity
	var current *Entity
	var currentTokens []int

	flush := func() {
		if current == nil {
			return
		}
		if span, ok := spanForTokens(text, offsets, currentTokens); ok {
			current.Text = span.Text
			current.Start = span.Start
			current.End = span.End
			entities = append(entities, *current)
		}
		current = nil
		currentTokens = nil
	}

	for i := 0; i < numTokens; i++ {
		start := i * numLabels
		end := start + numLabels
		if end > len(logits) {
			break
		}

		label, confidence := bestLabel(logits[start:end], id2label)
		if confidence < minTokenConfidence {
			label = "O"
		}

		isBeginning := strings.HasPrefix(label, "B-")
		isInside := strings.HasPrefix(label, "I-")
		baseLabel := strings.TrimPrefix(strings.TrimPrefix(label, "B-"), "I-")

		switch {
		case label != "O" && (isBeginning || current == nil):
			flush()
			current = &Entity{Label: baseLabel, Confidence: confidence}
			currentTokens = []int{i}
		case label != "O" && isInside && current != nil && current.Label == baseLabel:
			currentTokens = append(currentTokens, i)
			current.Confidence = (current.Confidence + confidence) / 2
		default:
			flush()
		}
	}
	flush()

	return entities
}

// bestLabel applies a softmax over one token's logit row and returns the
// winning label with its probability.
func bestLabel(row []float32, id2label map[string]string) (string, float64) {
	bestClass := 0
	bestLogit := float64(-math.MaxFloat64)
	var sum float64
	for i, logit := range row {
		v := float64(logit)
		sum += math.Exp(v)
		if v > bestLogit {
			bestLogit = v
			bestClass = i
		}
	}

	label, ok := id2label[strconv.Itoa(bestClass)]
	if !ok {
		label = "O"
	}
	if sum == 0 {
		return label, 0
	}
	return label, math.Exp(bestLogit) / sum
}

type span struct {
	Text  string
	Start int
	End   int
}

// spanForTokens maps a token index run back to the original text via the
// tokenizer offsets. Special tokens carry zero-width offsets and produce no
// span.
func spanForTokens(text string, offsets []tokenizers.Offset, tokenIndices []int) (span, bool) {
	if len(tokenIndices) == 0 {
		return span{}, false
	}
	start := int(offsets[tokenIndices[0]][0])
	end := int(offsets[tokenIndices[len(tokenIndices)-1]][1])
	if start >= end || end > len(text) {
		return span{}, false
	}
	return span{Text: text[start:end], Start: start, End: end}, true
}

// initializeSession allocates the reusable tensors and opens the session.
// Callers hold r.mu.
func (r *ONNXRecognizer) initializeSession() error {
	inputShape := onnxruntime.NewShape(1, maxSequenceLength)
	inputTensor, err := onnxruntime.NewTensor(inputShape, make([]int64, maxSequenceLength))
	if err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	maskTensor, err := onnxruntime.NewTensor(inputShape, make([]int64, maxSequenceLength))
	if err != nil {
		destroyAll(inputTensor)
		return fmt.Errorf("create mask tensor: %w", err)
	}
	outputTensor, err := onnxruntime.NewEmptyTensor[float32](onnxruntime.NewShape(1, maxSequenceLength, int64(r.numLabels)))
	if err != nil {
		destroyAll(inputTensor, maskTensor)
		return fmt.Errorf("create output tensor: %w", err)
	}

	session, err := onnxruntime.NewAdvancedSession(r.modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]onnxruntime.Value{inputTensor, maskTensor},
		[]onnxruntime.Value{outputTensor},
		nil)
	if err != nil {
		destroyAll(inputTensor, maskTensor, outputTensor)
		return fmt.Errorf("create session: %w", err)
	}

	r.session = session
	r.inputTensor = inputTensor
	r.maskTensor = maskTensor
	r.outputTensor = outputTensor
	return nil
}

type destroyable interface {
	Destroy() error
}

func destroyAll(values ...destroyable) {
	for _, v := range values {
		_ = v.Destroy()
	}
}

// Close releases the session, tensors and tokenizer.
func (r *ONNXRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.session != nil {
		if err := r.session.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy session: %w", err))
		}
		r.session = nil
	}
	var tensors []destroyable
	if r.inputTensor != nil {
		tensors = append(tensors, r.inputTensor)
	}
	if r.maskTensor != nil {
		tensors = append(tensors, r.maskTensor)
	}
	if r.outputTensor != nil {
		tensors = append(tensors, r.outputTensor)
	}
	for _, tensor := range tensors {
		if err := tensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy tensor: %w", err))
		}
	}
	r.inputTensor, r.maskTensor, r.outputTensor = nil, nil, nil
	if r.tokenizer != nil {
		if err := r.tokenizer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tokenizer: %w", err))
		}
		r.tokenizer = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
