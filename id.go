package scpfwk

import "fmt"

// Kind discriminates the variants of an ID.
type Kind uint8

// ID kinds. KindNone is the zero value, so a zero ID is IDNone.
const (
	KindNone Kind = iota
	KindModule
	KindElement
	KindSubElement
	KindAPI
	KindEvent
	KindNotification
)

// String returns the short tag used in ID.String output and logs.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindModule:
		return "mod"
	case KindElement:
		return "elm"
	case KindSubElement:
		return "sub"
	case KindAPI:
		return "api"
	case KindEvent:
		return "evt"
	case KindNotification:
		return "ntf"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Index ranges for each position in an identifier. Constructors reject
// anything outside these bounds.
const (
	MaxModuleIndex       = 0xff
	MaxElementIndex      = 0xfff
	MaxSubElementIndex   = 0xffff
	MaxAPIIndex          = 0xff
	MaxEventIndex        = 0xff
	MaxNotificationIndex = 0xff
)

// ID is a typed handle naming a module, one of its elements or
// sub-elements, or one of its APIs, event types, or notification types.
// It packs the kind tag and every index into a single machine word, so it
// is trivially copyable and comparable with ==.
//
// Layout (low to high): module index (8 bits), element index (12 bits) or
// item index (8 bits) for API/event/notification kinds, sub-element index
// (16 bits), kind tag (4 bits).
type ID uint64

// IDNone is the untyped identifier. It matches no other kind.
const IDNone ID = 0

const (
	idModuleShift = 0
	idModuleMask  = MaxModuleIndex

	idElementShift = 8
	idElementMask  = MaxElementIndex

	idSubElementShift = 20
	idSubElementMask  = MaxSubElementIndex

	idItemShift = 8
	idItemMask  = 0xff

	idKindShift = 36
	idKindMask  = 0xf
)

func packID(k Kind, module, element, sub, item int) ID {
	return ID(uint64(k)<<idKindShift |
		uint64(module)<<idModuleShift |
		uint64(element)<<idElementShift |
		uint64(sub)<<idSubElementShift |
		uint64(item)<<idItemShift)
}

func checkIndex(what string, idx, max int) error {
	if idx < 0 || idx > max {
		return fmt.Errorf("%w: %s index %d out of range [0, %d]", StatusParam, what, idx, max)
	}
	return nil
}

// NewModuleID builds a Module identifier.
func NewModuleID(module int) (ID, error) {
	if err := checkIndex("module", module, MaxModuleIndex); err != nil {
		return IDNone, err
	}
	return packID(KindModule, module, 0, 0, 0), nil
}

// NewElementID builds an Element identifier.
func NewElementID(module, element int) (ID, error) {
	if err := checkIndex("module", module, MaxModuleIndex); err != nil {
		return IDNone, err
	}
	if err := checkIndex("element", element, MaxElementIndex); err != nil {
		return IDNone, err
	}
	return packID(KindElement, module, element, 0, 0), nil
}

// NewSubElementID builds a SubElement identifier.
func NewSubElementID(module, element, subElement int) (ID, error) {
	if err := checkIndex("module", module, MaxModuleIndex); err != nil {
		return IDNone, err
	}
	if err := checkIndex("element", element, MaxElementIndex); err != nil {
		return IDNone, err
	}
	if err := checkIndex("sub-element", subElement, MaxSubElementIndex); err != nil {
		return IDNone, err
	}
	return packID(KindSubElement, module, element, subElement, 0), nil
}

// NewAPIID builds an API identifier for the given module.
func NewAPIID(module, api int) (ID, error) {
	if err := checkIndex("module", module, MaxModuleIndex); err != nil {
		return IDNone, err
	}
	if err := checkIndex("api", api, MaxAPIIndex); err != nil {
		return IDNone, err
	}
	return packID(KindAPI, module, 0, 0, api), nil
}

// NewEventID builds an Event identifier for the given module.
func NewEventID(module, event int) (ID, error) {
	if err := checkIndex("module", module, MaxModuleIndex); err != nil {
		return IDNone, err
	}
	if err := checkIndex("event", event, MaxEventIndex); err != nil {
		return IDNone, err
	}
	return packID(KindEvent, module, 0, 0, event), nil
}

// NewNotificationID builds a Notification identifier for the given module.
func NewNotificationID(module, notification int) (ID, error) {
	if err := checkIndex("module", module, MaxModuleIndex); err != nil {
		return IDNone, err
	}
	if err := checkIndex("notification", notification, MaxNotificationIndex); err != nil {
		return IDNone, err
	}
	return packID(KindNotification, module, 0, 0, notification), nil
}

// MustModuleID is NewModuleID panicking on out-of-range input. Intended for
// static module tables and tests.
func MustModuleID(module int) ID {
	id, err := NewModuleID(module)
	if err != nil {
		panic(err)
	}
	return id
}

// MustElementID is NewElementID panicking on out-of-range input.
func MustElementID(module, element int) ID {
	id, err := NewElementID(module, element)
	if err != nil {
		panic(err)
	}
	return id
}

// MustSubElementID is NewSubElementID panicking on out-of-range input.
func MustSubElementID(module, element, subElement int) ID {
	id, err := NewSubElementID(module, element, subElement)
	if err != nil {
		panic(err)
	}
	return id
}

// MustAPIID is NewAPIID panicking on out-of-range input.
func MustAPIID(module, api int) ID {
	id, err := NewAPIID(module, api)
	if err != nil {
		panic(err)
	}
	return id
}

// MustEventID is NewEventID panicking on out-of-range input.
func MustEventID(module, event int) ID {
	id, err := NewEventID(module, event)
	if err != nil {
		panic(err)
	}
	return id
}

// MustNotificationID is NewNotificationID panicking on out-of-range input.
func MustNotificationID(module, notification int) ID {
	id, err := NewNotificationID(module, notification)
	if err != nil {
		panic(err)
	}
	return id
}

// Kind returns the kind tag of the identifier.
func (id ID) Kind() Kind {
	return Kind(uint64(id) >> idKindShift & idKindMask)
}

// IsKind reports whether the identifier has the given kind.
func (id ID) IsKind(k Kind) bool {
	return id.Kind() == k
}

// IsEntity reports whether the identifier names a dispatchable entity, that
// is a module, element, or sub-element.
func (id ID) IsEntity() bool {
	k := id.Kind()
	return k == KindModule || k == KindElement || k == KindSubElement
}

func (id ID) mustBe(what string, kinds ...Kind) {
	k := id.Kind()
	for _, want := range kinds {
		if k == want {
			return
		}
	}
	panic(fmt.Sprintf("scpfwk: %s index requested from %s identifier %s", what, k, id))
}

// ModuleIndex returns the module index. It is defined for every kind except
// KindNone; calling it on an untyped identifier is a programming error and
// panics. UncheckedModuleIndex skips the kind check.
func (id ID) ModuleIndex() int {
	id.mustBe("module", KindModule, KindElement, KindSubElement, KindAPI, KindEvent, KindNotification)
	return id.UncheckedModuleIndex()
}

// UncheckedModuleIndex extracts the module index without validating the
// identifier's kind.
func (id ID) UncheckedModuleIndex() int {
	return int(uint64(id) >> idModuleShift & idModuleMask)
}

// ElementIndex returns the element index of an Element or SubElement
// identifier, panicking on any other kind.
func (id ID) ElementIndex() int {
	id.mustBe("element", KindElement, KindSubElement)
	return id.UncheckedElementIndex()
}

// UncheckedElementIndex extracts the element index without validating the
// identifier's kind.
func (id ID) UncheckedElementIndex() int {
	return int(uint64(id) >> idElementShift & idElementMask)
}

// SubElementIndex returns the sub-element index of a SubElement identifier,
// panicking on any other kind.
func (id ID) SubElementIndex() int {
	id.mustBe("sub-element", KindSubElement)
	return id.UncheckedSubElementIndex()
}

// UncheckedSubElementIndex extracts the sub-element index without validating
// the identifier's kind.
func (id ID) UncheckedSubElementIndex() int {
	return int(uint64(id) >> idSubElementShift & idSubElementMask)
}

// APIIndex returns the API index of an API identifier, panicking on any
// other kind.
func (id ID) APIIndex() int {
	id.mustBe("api", KindAPI)
	return id.UncheckedItemIndex()
}

// EventIndex returns the event index of an Event identifier, panicking on
// any other kind.
func (id ID) EventIndex() int {
	id.mustBe("event", KindEvent)
	return id.UncheckedItemIndex()
}

// NotificationIndex returns the notification index of a Notification
// identifier, panicking on any other kind.
func (id ID) NotificationIndex() int {
	id.mustBe("notification", KindNotification)
	return id.UncheckedItemIndex()
}

// UncheckedItemIndex extracts the API/event/notification index without
// validating the identifier's kind.
func (id ID) UncheckedItemIndex() int {
	return int(uint64(id) >> idItemShift & idItemMask)
}

// String renders the identifier for logs and errors, e.g. "[mod 3]",
// "[elm 3.1]", "[sub 3.1.2]", "[api 3:0]", "[evt 3:4]", "[ntf 3:1]".
func (id ID) String() string {
	switch id.Kind() {
	case KindNone:
		return "[none]"
	case KindModule:
		return fmt.Sprintf("[mod %d]", id.UncheckedModuleIndex())
	case KindElement:
		return fmt.Sprintf("[elm %d.%d]", id.UncheckedModuleIndex(), id.UncheckedElementIndex())
	case KindSubElement:
		return fmt.Sprintf("[sub %d.%d.%d]",
			id.UncheckedModuleIndex(), id.UncheckedElementIndex(), id.UncheckedSubElementIndex())
	case KindAPI:
		return fmt.Sprintf("[api %d:%d]", id.UncheckedModuleIndex(), id.UncheckedItemIndex())
	case KindEvent:
		return fmt.Sprintf("[evt %d:%d]", id.UncheckedModuleIndex(), id.UncheckedItemIndex())
	case KindNotification:
		return fmt.Sprintf("[ntf %d:%d]", id.UncheckedModuleIndex(), id.UncheckedItemIndex())
	default:
		return fmt.Sprintf("[invalid %#x]", uint64(id))
	}
}
