package tenant

// ResourceType names a persisted resource.
type ResourceType string

// Tenant-isolated resources.
const (
	ResourceClient                     ResourceType = "Client"
	ResourceBeautyBusiness             ResourceType = "BeautyBusiness"
	ResourceBeautyTreatment            ResourceType = "BeautyTreatment"
	ResourceBeautyAppointment          ResourceType = "BeautyAppointment"
	ResourceBeautyProfessional         ResourceType = "BeautyProfessional"
	ResourceBeautyClient               ResourceType = "BeautyClient"
	ResourceBeautyProfessionalSchedule ResourceType = "BeautyProfessionalSchedule"
	ResourceBeautyProduct              ResourceType = "BeautyProduct"
	ResourceTenantUser                 ResourceType = "TenantUser"
	ResourceFrontendContent            ResourceType = "FrontendContent"
	ResourceSiteSection                ResourceType = "SiteSection"
	ResourceSiteMedia                  ResourceType = "SiteMedia"
	ResourceSiteButton                 ResourceType = "SiteButton"
	ResourceRestaurantReservation      ResourceType = "RestaurantReservation"
	ResourceReservation                ResourceType = "Reservation"
	ResourceProject                    ResourceType = "Project"
	ResourceWellnessCourse             ResourceType = "WellnessCourse"
	ResourceWellnessCoach              ResourceType = "WellnessCoach"
	ResourceRestaurantTable            ResourceType = "RestaurantTable"
	ResourceMenuItem                   ResourceType = "MenuItem"
	ResourcePatient                    ResourceType = "Patient"
	ResourceTherapist                  ResourceType = "Therapist"
	ResourceOrder                      ResourceType = "Order"
	ResourceCommand                    ResourceType = "Command"
)

// Platform-level resources, never tenant filtered.
const (
	ResourceTenant       ResourceType = "Tenant"
	ResourceSuperAdmin   ResourceType = "SuperAdmin"
	ResourceRefreshToken ResourceType = "RefreshToken"
	ResourceAuditLog     ResourceType = "AuditLog"
)

var isolated = map[ResourceType]struct{}{
	ResourceClient:                     {},
	ResourceBeautyBusiness:             {},
	ResourceBeautyTreatment:            {},
	ResourceBeautyAppointment:          {},
	ResourceBeautyProfessional:         {},
	ResourceBeautyClient:               {},
	ResourceBeautyProfessionalSchedule: {},
	ResourceBeautyProduct:              {},
	ResourceTenantUser:                 {},
	ResourceFrontendContent:            {},
	ResourceSiteSection:                {},
	ResourceSiteMedia:                  {},
	ResourceSiteButton:                 {},
	ResourceRestaurantReservation:      {},
	ResourceReservation:                {},
	ResourceProject:                    {},
	ResourceWellnessCourse:             {},
	ResourceWellnessCoach:              {},
	ResourceRestaurantTable:            {},
	ResourceMenuItem:                   {},
	ResourcePatient:                    {},
	ResourceTherapist:                  {},
	ResourceOrder:                      {},
	ResourceCommand:                    {},
}

// RequiresIsolation reports whether rt is tenant isolated.
func RequiresIsolation(rt ResourceType) bool {
	_, ok := isolated[rt]
	return ok
}

// IsolatedResources returns the isolated resource types in declaration order.
func IsolatedResources() []ResourceType {
	return []ResourceType{
		ResourceClient, ResourceBeautyBusiness, ResourceBeautyTreatment, ResourceBeautyAppointment,
		ResourceBeautyProfessional, ResourceBeautyClient, ResourceBeautyProfessionalSchedule,
		ResourceBeautyProduct, ResourceTenantUser, ResourceFrontendContent, ResourceSiteSection,
		ResourceSiteMedia, ResourceSiteButton, ResourceRestaurantReservation, ResourceReservation,
		ResourceProject, ResourceWellnessCourse, ResourceWellnessCoach, ResourceRestaurantTable,
		ResourceMenuItem, ResourcePatient, ResourceTherapist, ResourceOrder, ResourceCommand,
	}
}

// ParseResourceType maps a name to a known ResourceType.
func ParseResourceType(name string) (ResourceType, bool) {
	rt := ResourceType(name)
	if RequiresIsolation(rt) {
		return rt, true
	}
	switch rt {
	case ResourceTenant, ResourceSuperAdmin, ResourceRefreshToken, ResourceAuditLog:
		return rt, true
	}
	return "", false
}
