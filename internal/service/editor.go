package service

// Bounds of the number of images merged into one
const (
	MinCombineImages = 2
	MaxCombineImages = 3
)

// ImageRef points at an image either by messenger file id or by URL
type ImageRef struct {
	FileID string `json:"file_id,omitempty"`
	URL    string `json:"url,omitempty"`
}

// CombineState tracks the images collected for a combine
type CombineState struct {
	Images []ImageRef `json:"images,omitempty"`
	Prompt string     `json:"prompt,omitempty"`
}

// Editor is the draft workflow state kept in a dialog frame: the baseline,
// the working copy, and the backup of the last unaccepted mutation.
type Editor struct {
	Original Draft        `json:"original"`
	Working  Draft        `json:"working"`
	Backup   *Draft       `json:"backup,omitempty"`
	Combine  CombineState `json:"combine"`
}

// Open loads d as both baseline and working copy
func (e *Editor) Open(d Draft) {
	e.Original = d.Clone()
	e.Working = d.Clone()
	e.Backup = nil
	e.Combine = CombineState{}
}

func (e *Editor) HasChanges() bool {
	return HasChanges(e.Original, e.Working)
}

// Snapshot saves the working copy unless an unaccepted mutation is already
// backed up, so Reject always returns to the last accepted state.
func (e *Editor) Snapshot() {
	if e.Backup != nil {
		return
	}
	b := e.Working.Clone()
	e.Backup = &b
}

// Pending reports whether a mutation awaits accept or reject
func (e *Editor) Pending() bool {
	return e.Backup != nil
}

// Accept keeps the mutated working copy
func (e *Editor) Accept() {
	e.Backup = nil
}

// Reject restores the working copy from the backup
func (e *Editor) Reject() {
	if e.Backup == nil {
		return
	}
	e.Working = *e.Backup
	e.Backup = nil
}

// Apply snapshots and runs a mutation. A failed mutation leaves the working
// copy and backup exactly as they were.
func (e *Editor) Apply(fn func(w *Draft) error) error {
	before := e.Working.Clone()
	hadBackup := e.Backup != nil

	e.Snapshot()
	if err := fn(&e.Working); err != nil {
		e.Working = before
		if !hadBackup {
			e.Backup = nil
		}
		return err
	}
	return nil
}

// Promote makes the working copy the new baseline
func (e *Editor) Promote() {
	e.Original = e.Working.Clone()
	e.Backup = nil
}

// Discard drops unsaved changes
func (e *Editor) Discard() {
	e.Working = e.Original.Clone()
	e.Backup = nil
	e.Combine = CombineState{}
}

func (e *Editor) SetText(text string) {
	e.Working.Text = text
}

// SetGeneratedImages shows the first of a freshly generated carousel
func (e *Editor) SetGeneratedImages(urls []string) {
	w := &e.Working
	w.GeneratedImagesURL = append([]string(nil), urls...)
	w.CurrentImageIndex = 0
	w.CustomImageFileID = ""
	w.HasImage = len(urls) > 0
	w.ImageURL = ""
	if len(urls) > 0 {
		w.ImageURL = urls[0]
	}
}

func (e *Editor) NextImage() {
	e.moveImage(1)
}

func (e *Editor) PrevImage() {
	e.moveImage(-1)
}

func (e *Editor) moveImage(delta int) {
	w := &e.Working
	n := len(w.GeneratedImagesURL)
	if n == 0 {
		return
	}
	w.CurrentImageIndex = ((w.CurrentImageIndex+delta)%n + n) % n
	w.ImageURL = w.GeneratedImagesURL[w.CurrentImageIndex]
}

// SetCustomImage replaces the image with one uploaded by the user
func (e *Editor) SetCustomImage(fileID string) {
	w := &e.Working
	w.CustomImageFileID = fileID
	w.HasImage = true
	w.ImageURL = ""
	w.GeneratedImagesURL = nil
	w.CurrentImageIndex = 0
}

func (e *Editor) RemoveImage() {
	w := &e.Working
	w.HasImage = false
	w.CustomImageFileID = ""
	w.ImageURL = ""
	w.GeneratedImagesURL = nil
	w.CurrentImageIndex = 0
}

// CurrentImage returns the image shown for the working copy
func (e *Editor) CurrentImage() (ImageRef, bool) {
	w := e.Working
	switch {
	case !w.HasImage:
		return ImageRef{}, false
	case w.CustomImageFileID != "":
		return ImageRef{FileID: w.CustomImageFileID}, true
	case w.ImageURL != "":
		return ImageRef{URL: w.ImageURL}, true
	}
	return ImageRef{}, false
}

// StartCombine begins collecting images, optionally seeded with the current one
func (e *Editor) StartCombine(withCurrent bool) {
	e.Combine = CombineState{}
	if !withCurrent {
		return
	}
	if ref, ok := e.CurrentImage(); ok {
		e.Combine.Images = append(e.Combine.Images, ref)
	}
}

// AddCombineImage collects an uploaded image; false once the limit is reached
func (e *Editor) AddCombineImage(fileID string) bool {
	if len(e.Combine.Images) >= MaxCombineImages {
		return false
	}
	e.Combine.Images = append(e.Combine.Images, ImageRef{FileID: fileID})
	return true
}

// CanCombine reports whether enough images were collected
func (e *Editor) CanCombine() bool {
	return len(e.Combine.Images) >= MinCombineImages
}
