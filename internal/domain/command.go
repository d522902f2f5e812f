package domain

import "cloud.google.com/go/civil"

// Command is one write the action router may perform. The set is closed:
// only types in this package implement it.
type Command interface {
	Action() Action
	isCommand()
}

type CreateVisitCommand struct {
	VisitDate   *civil.Date
	Notes       string
	Diagnosis   string
	Medications []MedicationItem
}

type UpdateVisitCommand struct {
	NextVisitDate *civil.Date
	Notes         string
}

type CreatePaymentCommand struct {
	Amount    int64
	Currency  Currency
	VisitDate *civil.Date
	Comment   string
}

type UpdatePatientCommand struct {
	Diagnosis string
	Status    string
}

type AddNoteCommand struct {
	Note string
}

type AddMedicationCommand struct {
	Items []MedicationItem
}

type UnknownCommand struct{}

func (CreateVisitCommand) Action() Action   { return ActionCreateVisit }
func (UpdateVisitCommand) Action() Action   { return ActionUpdateVisit }
func (CreatePaymentCommand) Action() Action { return ActionCreatePayment }
func (UpdatePatientCommand) Action() Action { return ActionUpdatePatient }
func (AddNoteCommand) Action() Action       { return ActionAddNote }
func (AddMedicationCommand) Action() Action { return ActionAddMedication }
func (UnknownCommand) Action() Action       { return ActionUnknown }

func (CreateVisitCommand) isCommand()   {}
func (UpdateVisitCommand) isCommand()   {}
func (CreatePaymentCommand) isCommand() {}
func (UpdatePatientCommand) isCommand() {}
func (AddNoteCommand) isCommand()       {}
func (AddMedicationCommand) isCommand() {}
func (UnknownCommand) isCommand()       {}

// CommandFor builds the command for a classified action from its fields.
func CommandFor(action Action, f Fields) Command {
	switch action {
	case ActionCreateVisit:
		return CreateVisitCommand{VisitDate: f.VisitDate, Notes: f.Notes, Diagnosis: f.Diagnosis, Medications: f.Medications}
	case ActionUpdateVisit:
		return UpdateVisitCommand{NextVisitDate: f.NextVisitDate, Notes: f.Notes}
	case ActionCreatePayment:
		var amount int64
		if f.Amount != nil {
			amount = *f.Amount
		}
		return CreatePaymentCommand{Amount: amount, Currency: f.Currency, VisitDate: f.VisitDate, Comment: f.PaymentComment}
	case ActionUpdatePatient:
		return UpdatePatientCommand{Diagnosis: f.Diagnosis, Status: f.PatientStatus}
	case ActionAddNote:
		return AddNoteCommand{Note: f.Notes}
	case ActionAddMedication:
		return AddMedicationCommand{Items: f.Medications}
	}
	return UnknownCommand{}
}
