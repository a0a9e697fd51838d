package constants

const KBolzmannMeV float64 = 8.617333262e-11 // [MeV K^-1]
const ThermalEnergyThreshold float64 = 5e-6  // [MeV]
const RoomTemperature float64 = 293.6        // [K]
const BetaMaxScale float64 = 20.             // energy transfer bound in kT for A -> inf
const MeV2eV float64 = 1e6                   // [eV MeV^-1]
const BarnsPerSquareMeter float64 = 1e28     // [b m^-2]
const Quantile95 = 1.96
