package place

// HospitalCapacity configures hospital classification at load time.
type HospitalCapacity struct {
	MinBedThreshold              int
	OutpatientsPerEmployee       float64
	ClinicOutpatientsPerEmployee float64
}

// ClassifyHospital sets a hospital's bed and staff counts, marks it a
// healthcare clinic when its bed count is below the threshold and derives its
// daily outpatient capacity. Mobile clinics keep their subtype.
func ClassifyHospital(p *Place, employees, physicians, beds int, c HospitalCapacity) {
	h := p.Hospital
	h.EmployeeCount = employees
	h.PhysicianCount = physicians
	h.BedCount = beds

	rate := c.OutpatientsPerEmployee
	if p.Subtype != SubtypeMobileHealthcareClinic && beds < c.MinBedThreshold {
		p.Subtype = SubtypeHealthcareClinic
	}
	if p.IsClinic() {
		rate = c.ClinicOutpatientsPerEmployee
	}
	h.DailyPatientCapacity = int(float64(employees) * rate)
}
